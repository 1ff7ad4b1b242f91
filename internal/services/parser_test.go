package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-ai/internal/models"
)

const validReply = `{"questions":[{"question":"Quanto é 2+2?","alternatives":[
{"text":"3","correct":false},{"text":"4","correct":true},
{"text":"5","correct":false},{"text":"22","correct":false}]}]}`

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"code fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Aqui está: {"a":{"b":2}} Espero que ajude!`, `{"a":{"b":2}}`},
		{"greedy across objects", `{"a":1} e {"b":2}`, `{"a":1} e {"b":2}`},
		{"no braces", `sem json`, `sem json`},
		{"closing before opening", `} nada {`, `} nada {`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractJSON(tc.in))
		})
	}
}

func TestParseQuestionsValid(t *testing.T) {
	want := []models.GeneratedQuestion{{
		Question: "Quanto é 2+2?",
		Alternatives: []models.Alternative{
			{Text: "3"}, {Text: "4", Correct: true}, {Text: "5"}, {Text: "22"},
		},
	}}

	for name, content := range map[string]string{
		"plain":  validReply,
		"fenced": "```json\n" + validReply + "\n```",
		"prose":  "Claro! Seguem as questões:\n" + validReply + "\nBons estudos.",
		"padded": `{"questions":[{"question":"  Quanto é 2+2?\n","alternatives":[
{"text":" 3","correct":false},{"text":"4 ","correct":true},
{"text":"5","correct":false},{"text":"\t22","correct":false}]}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ParseQuestions(content)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseQuestionsMalformed(t *testing.T) {
	for name, content := range map[string]string{
		"not json":       "Desculpe, não consigo ajudar.",
		"truncated":      `{"questions":[{"question":"x"`,
		"two objects":    `{"questions":[]} {"questions":[]}`,
		"empty response": "",
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ParseQuestions(content)
			assert.Nil(t, got)
			require.ErrorIs(t, err, ErrMalformedResponse)
			assert.Equal(t, "Erro ao processar resposta da IA", UserMessage(err, ""))
			assert.Equal(t, content, Diagnostics(err))
		})
	}
}

func TestParseQuestionsSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing questions", `{"items":[]}`},
		{"empty questions", `{"questions":[]}`},
		{"empty question text", `{"questions":[{"question":"","alternatives":[
			{"text":"a","correct":true},{"text":"b","correct":false},{"text":"c","correct":false},{"text":"d","correct":false}]}]}`},
		{"three alternatives", `{"questions":[{"question":"q","alternatives":[
			{"text":"a","correct":true},{"text":"b","correct":false},{"text":"c","correct":false}]}]}`},
		{"five alternatives", `{"questions":[{"question":"q","alternatives":[
			{"text":"a","correct":true},{"text":"b","correct":false},{"text":"c","correct":false},
			{"text":"d","correct":false},{"text":"e","correct":false}]}]}`},
		{"no correct alternative", `{"questions":[{"question":"q","alternatives":[
			{"text":"a","correct":false},{"text":"b","correct":false},{"text":"c","correct":false},{"text":"d","correct":false}]}]}`},
		{"two correct alternatives", `{"questions":[{"question":"q","alternatives":[
			{"text":"a","correct":true},{"text":"b","correct":true},{"text":"c","correct":false},{"text":"d","correct":false}]}]}`},
		{"missing correct flag", `{"questions":[{"question":"q","alternatives":[
			{"text":"a","correct":true},{"text":"b"},{"text":"c","correct":false},{"text":"d","correct":false}]}]}`},
		{"empty alternative text", `{"questions":[{"question":"q","alternatives":[
			{"text":"a","correct":true},{"text":"","correct":false},{"text":"c","correct":false},{"text":"d","correct":false}]}]}`},
		{"blank question text", `{"questions":[{"question":"   ","alternatives":[
			{"text":"a","correct":true},{"text":"b","correct":false},{"text":"c","correct":false},{"text":"d","correct":false}]}]}`},
		{"blank alternative text", `{"questions":[{"question":"q","alternatives":[
			{"text":"a","correct":true},{"text":" \t ","correct":false},{"text":"c","correct":false},{"text":"d","correct":false}]}]}`},
		{"questions is a string", `{"questions":"muitas"}`},
		{"correct is a string", `{"questions":[{"question":"q","alternatives":[
			{"text":"a","correct":"true"},{"text":"b","correct":false},{"text":"c","correct":false},{"text":"d","correct":false}]}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseQuestions(tc.content)
			assert.Nil(t, got)
			require.ErrorIs(t, err, ErrSchemaViolation)
			assert.NotErrorIs(t, err, ErrMalformedResponse)
		})
	}
}
