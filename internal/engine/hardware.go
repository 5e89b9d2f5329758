package engine

import "github.com/vociferous/vociferous/internal/config"

// HardwareInfo is a small capability probe result used to pick a default
// device/compute_type when a caller leaves an EngineConfig at auto.
type HardwareInfo struct {
	CUDAAvailable bool
	VRAMTotalMB   int
}

// DetectHardware reports the hardware this process can see. The actual
// CUDA/driver probe is outside this module's scope (model inference itself
// is abstracted, per the transcription pipeline's stated boundaries) so
// this always reports a CPU-only result; the shape of the decision it
// feeds is what matters, not the probe depth.
func DetectHardware() HardwareInfo {
	return HardwareInfo{CUDAAvailable: false, VRAMTotalMB: 0}
}

// ResolveDevice picks a concrete device for an auto device, using hw to
// decide, and leaves an already-explicit device untouched.
func ResolveDevice(device config.Device, hw HardwareInfo) config.Device {
	if device != config.DeviceAuto {
		return device
	}
	if hw.CUDAAvailable {
		return config.DeviceCUDA
	}
	return config.DeviceCPU
}

// ResolveComputeType picks a concrete compute type for an auto compute
// type, given the (already-resolved) device.
func ResolveComputeType(computeType config.ComputeType, device config.Device) config.ComputeType {
	if computeType != config.ComputeAuto {
		return computeType
	}
	if device == config.DeviceCUDA {
		return config.ComputeFP16
	}
	return config.ComputeInt8
}

// NormalizeConfig resolves every auto field in cfg against detected
// hardware, returning a config with concrete device/compute_type values.
func NormalizeConfig(cfg Config) Config {
	hw := DetectHardware()
	cfg.Device = ResolveDevice(cfg.Device, hw)
	cfg.ComputeType = ResolveComputeType(cfg.ComputeType, cfg.Device)
	return cfg
}
