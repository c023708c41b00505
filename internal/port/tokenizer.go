package port

// Tokenizer splits text into the terms a text model works on.
type Tokenizer interface {
	Tokenize(text string) []string
}
