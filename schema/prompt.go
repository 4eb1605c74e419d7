package schema

// PromptKind reports what kind of input the interpreter currently expects.
type PromptKind string

const (
	// PromptNone means no input request is pending.
	PromptNone PromptKind = "none"
	// PromptLine means a full line of text is expected.
	PromptLine PromptKind = "line"
	// PromptChar means a single keypress is expected.
	PromptChar PromptKind = "char"
	// PromptFileref means a save/restore file name is expected.
	PromptFileref PromptKind = "fileref"
)
