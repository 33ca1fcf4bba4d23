package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Runtime (R1xx)

	"R101": {
		Category:   CategoryRuntime,
		Message:    "Hook order violation",
		Suggestion: "Call hooks unconditionally and in the same order on every render.",
	},
	"R102": {
		Category:   CategoryRuntime,
		Message:    "Hook called outside of render",
		Suggestion: "Only call hooks from the render function, on the goroutine rendering the component.",
	},
	"R103": {
		Category:   CategoryRuntime,
		Message:    "Too many re-renders",
		Suggestion: "A component updates its own state unconditionally while rendering. Move the update into an effect or guard it.",
	},
	"R104": {
		Category: CategoryRuntime,
		Message:  "Render function panicked",
	},
	"R105": {
		Category: CategoryRuntime,
		Message:  "Root unmounted",
	},
	"R106": {
		Category:   CategoryRuntime,
		Message:    "Update storm",
		Suggestion: "An effect probably sets state on every commit. Add dependencies to the effect.",
	},
	"R107": {
		Category: CategoryEffect,
		Message:  "Effect execution failed",
	},
	"R108": {
		Category: CategoryRuntime,
		Message:  "Reentrant flush",
	},

	// Config (C2xx)

	"C201": {
		Category: CategoryConfig,
		Message:  "Cannot read config file",
	},
	"C202": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},

	// Scenario (S3xx)

	"S301": {
		Category: CategoryScenario,
		Message:  "Cannot read scenario",
	},
	"S302": {
		Category: CategoryScenario,
		Message:  "Invalid scenario step",
	},
	"S303": {
		Category: CategoryScenario,
		Message:  "Scenario run failed",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
