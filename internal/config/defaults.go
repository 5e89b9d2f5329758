package config

// Default returns the canonical runtime configuration used when no file is
// present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Engine: EngineConfig{
			Kind:        EngineWhisperTurbo,
			ModelName:   "whisper-large-v3-turbo",
			Device:      DeviceAuto,
			ComputeType: ComputeAuto,
			Params:      map[string]string{},
		},
		Segmentation: SegmentationProfile{
			Threshold:          0.5,
			MinSilenceMS:       300,
			MinSpeechMS:        250,
			SpeechPadMS:        250,
			MaxChunkS:          30,
			ChunkSearchStartS:  25,
			MinGapForSplitS:    0.5,
			MaxSpeechDurationS: 40,
			SampleRate:         16000,
			Device:             DeviceAuto,
		},
		Preprocessing: PreprocessingConfig{},
		Transcription: TranscriptionOptions{
			Language: "en",
			Params:   map[string]string{},
		},
		Artifact: ArtifactConfig{
			NamingPattern:        "{input_stem}_{step}.{ext}",
			CleanupIntermediates: true,
			KeepOnError:          true,
		},
		Transcript: TranscriptConfig{
			TrailingSpace:       false,
			CapitalizeSentences: true,
		},
		Daemon: DaemonConfig{
			HTTPAddr:           "127.0.0.1:8765",
			AutoStart:          true,
			Mode:               DaemonModeAuto,
			StartTimeoutS:      60,
			TranscribeTimeoutS: 300,
			PingTimeoutS:       30,
			NominalLoadTimeS:   20,
		},
		History: HistoryConfig{
			Backend: HistoryBackendNone,
		},
		Refine: RefineConfig{
			Enable: false,
			Mode:   RefineGrammarOnly,
		},
		ClipboardCmd: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
	}
}
