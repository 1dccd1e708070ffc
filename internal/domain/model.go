// Package domain defines core business entities and value objects for AskPage.
//
// This file contains the LLM provider definitions shared by the settings
// service, the provider router and the backend adapters. The domain layer is
// independent of infrastructure concerns.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProviderID names one of the supported LLM backends.
type ProviderID string

const (
	ProviderGemini ProviderID = "gemini"
	ProviderOpenAI ProviderID = "openai"
)

// Providers lists the supported backends in display order.
var Providers = []ProviderID{ProviderGemini, ProviderOpenAI}

// ParseProvider normalizes user input into a ProviderID.
func ParseProvider(raw string) (ProviderID, error) {
	switch ProviderID(strings.ToLower(strings.TrimSpace(raw))) {
	case ProviderGemini:
		return ProviderGemini, nil
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	default:
		return "", NewInvalidSettings(fmt.Sprintf("unknown provider %q (expected gemini or openai)", raw))
	}
}

// DisplayName returns the human-readable provider name.
func (p ProviderID) DisplayName() string {
	switch p {
	case ProviderGemini:
		return "Gemini"
	case ProviderOpenAI:
		return "OpenAI"
	default:
		return string(p)
	}
}

// DefaultModel returns the model used when none has been stored.
func (p ProviderID) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	default:
		return DefaultGeminiModel
	}
}

// Other returns the provider a switch would activate.
func (p ProviderID) Other() ProviderID {
	if p == ProviderOpenAI {
		return ProviderGemini
	}
	return ProviderOpenAI
}

// Envelope is an AES-GCM encrypted credential: ciphertext plus the nonce
// needed to open it. Its contents are opaque outside the secret codec.
type Envelope struct {
	IV         ByteList `json:"iv"`
	Ciphertext ByteList `json:"encrypted"`
}

// ByteList is a byte slice encoded in JSON as an array of numbers, the
// layout existing stores already hold.
type ByteList []byte

// MarshalJSON implements json.Marshaler.
func (b ByteList) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *ByteList) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte value %d out of range", v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// Empty reports whether the envelope carries no ciphertext.
func (e Envelope) Empty() bool {
	return len(e.Ciphertext) == 0
}

// ProviderConfig is the stored configuration of a single provider.
type ProviderConfig struct {
	Provider ProviderID
	Model    string
	// Key holds the raw stored credential value. It is nil when no key was
	// stored; it is decoded into an Envelope only by the secret codec.
	Key []byte
}

// HasKey reports whether a credential has been stored.
func (c ProviderConfig) HasKey() bool {
	return len(c.Key) > 0
}

// Credentials carries the decrypted key into a backend adapter for a single
// call. It must never be logged or persisted.
type Credentials struct {
	APIKey string
	Model  string
}

// String hides the key from fmt verbs.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Model: %s, APIKey: <redacted>}", c.Model)
}

// GenerationSettings tunes sampling for backends that accept it.
type GenerationSettings struct {
	Temperature     float64 `yaml:"temperature"`
	TopP            float64 `yaml:"top_p"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}
