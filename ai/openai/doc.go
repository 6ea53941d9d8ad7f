// Package openai implements the ai interfaces against OpenAI-compatible APIs.
//
// Any service speaking the OpenAI wire protocol works: OpenAI itself, Ollama,
// LocalAI, vLLM, and similar. Hosts are normalized to end in /v1. The embedder
// and generator may point at different hosts and models; see ai.Config.
package openai
