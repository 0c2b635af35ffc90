package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_BasicASCII(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"foo bar baz", "foo-bar-baz"},
		{"Simple", "simple"},
		{"ALL UPPER CASE", "all-upper-case"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestGenerate_Cyrillic(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"черная", "chernaya"},
		{"Цветная", "tsvetnaya"},
		{"Щука и ёж", "shchuka-i-ezh"},
		{"Подъезд", "podezd"},
		{"Электродуговая печь", "elektrodugovaya-pech"},
		{"Юг-Хабаровск", "yug-khabarovsk"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestGenerate_PunctuationDropped(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello!!! World???", "hello-world"},
		{"Ковш-печь (LF)", "kovsh-pech-lf"},
		{"snake_case_name", "snake-case-name"},
		{"TBRC/Kaldo", "tbrckaldo"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestGenerate_WhitespaceHandling(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"leading spaces", "   hello world   ", "hello-world"},
		{"multiple spaces", "hello   world", "hello-world"},
		{"tabs and spaces", "hello\t\tworld", "hello-world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestGenerate_EdgeCases(t *testing.T) {
	assert.Equal(t, "", Generate(""))
	assert.Equal(t, "", Generate("   "))
	assert.Equal(t, "", Generate("!!!"))
	assert.Equal(t, "", Generate("ъь"))
	assert.Equal(t, "a", Generate("a"))
	assert.Equal(t, "123", Generate("123"))
}

func TestGenerate_NoLeadingTrailingHyphens(t *testing.T) {
	assert.Equal(t, "hello", Generate("-hello-"))
	assert.Equal(t, "a-b", Generate("a - - b"))
}

func TestGenerateOr_Fallback(t *testing.T) {
	assert.Equal(t, Fallback, GenerateOr("!!!", Fallback))
	assert.Equal(t, "chernaya", GenerateOr("Черная", Fallback))
}
