package pipeline

// EmbeddingText exposes embeddingText to external-package tests.
var EmbeddingText = embeddingText
