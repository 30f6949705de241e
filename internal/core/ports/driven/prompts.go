package driven

// PromptStore provides access to extraction prompt templates.
// Templates are addressed as "<prompt set>/<prompt kind>", for example
// "boilers/metadata".
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return domain.ErrNotFound.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}
