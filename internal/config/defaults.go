package config

const (
	defaultDataDir            = "~/.local/share/subqc"
	defaultLogDir             = "~/.local/share/subqc/logs"
	defaultReportDir          = "~/.local/share/subqc/reports"
	defaultProfile            = "Netflix-SV"
	defaultFixMode            = "none"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMTitle           = "subqc rewrite"
	defaultLLMTimeoutSeconds  = 60
	defaultProposalTTLMinutes = 24 * 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ReportDir: defaultReportDir,
		},
		QC: QC{
			DefaultProfile: defaultProfile,
			FixMode:        defaultFixMode,
		},
		LLM: LLM{
			BaseURL:            defaultLLMBaseURL,
			Model:              defaultLLMModel,
			Title:              defaultLLMTitle,
			TimeoutSeconds:     defaultLLMTimeoutSeconds,
			ProposalTTLMinutes: defaultProposalTTLMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
