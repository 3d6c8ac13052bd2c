package dto

// ExampleInfo describes one gallery image for the example picker.
type ExampleInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}
