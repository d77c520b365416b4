package ingest

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/awbdesk/internal/analysis"
	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"
)

const sampleStream = "data: {\"thinking\":\"Leyendo guía aérea… \"}\r\n" +
	"data: [Procesando documento 1/2]\n" +
	": comment line\n" +
	"event: message\n" +
	"data: {\"response\":\"[{\\\"fileName\\\":\\\"año.pdf\\\",\"}\n" +
	"data: {\"response\":\"\\\"fields\\\":{\\\"peso_bruto\\\":\\\"12 kg\\\",\\\"importe\\\":\\\"€ 40\\\"}}]\"}\n" +
	"data: Análisis completado\n" +
	"data: [DONE]\n"

func decodeAll(chunks [][]byte) *Decoder {
	dec := NewDecoder(nil)
	for _, c := range chunks {
		_, _ = dec.Write(c)
	}
	dec.Finish()
	return dec
}

func TestDecoderSample(t *testing.T) {
	dec := decodeAll([][]byte{[]byte(sampleStream)})
	require.Equal(t, "Leyendo guía aérea… \n[Procesando documento 1/2]\n\nAnálisis completado\n", dec.Thinking())
	require.Equal(t, `[{"fileName":"año.pdf","fields":{"peso_bruto":"12 kg","importe":"€ 40"}}]`, dec.Response())
}

func TestDecoderChunkBoundariesDoNotMatter(t *testing.T) {
	whole := decodeAll([][]byte{[]byte(sampleStream)})
	want, err := analysis.Normalize(context.Background(), whole.Response(), nil)
	require.NoError(t, err)

	data := []byte(sampleStream)
	// every single split point, including inside multi-byte runes
	for i := 0; i <= len(data); i++ {
		dec := decodeAll([][]byte{data[:i], data[i:]})
		require.Equal(t, whole.Thinking(), dec.Thinking(), "split at %d", i)
		require.Equal(t, whole.Response(), dec.Response(), "split at %d", i)
	}
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		var chunks [][]byte
		for rest := data; len(rest) > 0; {
			n := 1 + rng.Intn(9)
			if n > len(rest) {
				n = len(rest)
			}
			chunks = append(chunks, rest[:n])
			rest = rest[n:]
		}
		dec := decodeAll(chunks)
		got, err := analysis.Normalize(context.Background(), dec.Response(), nil)
		require.NoError(t, err)
		require.Equal(t, want, got)
		require.Equal(t, whole.Thinking(), dec.Thinking())
	}
}

func TestDecoderStructuredResponseReplaces(t *testing.T) {
	dec := decodeAll([][]byte{[]byte(
		"data: {\"response\":\"partial text \"}\n" +
			"data: {\"response\":{\"documents\":[{\"document_name\":\"a.pdf\"}]}}\n" +
			"data: {\"response\":\" tail\"}\n",
	)})
	require.Equal(t, `{"documents":[{"document_name":"a.pdf"}]} tail`, dec.Response())
}

func TestDecoderContentAndPlainText(t *testing.T) {
	dec := decodeAll([][]byte{[]byte(
		"data: {\"content\":\"Hello \"}\n" +
			"data: {\"thinking\":\"t\",\"content\":\"ignored\"}\n" +
			"data: {\"content\":{\"a\":1}}\n" +
			"data: plain words\n" +
			"data: 42\n" +
			"data: {\"thinking\":null,\"response\":null}\n" +
			"ignored: line\n",
	)})
	require.Equal(t, `Hello {"a":1}plain words`, dec.Response())
	require.Equal(t, "t", dec.Thinking())
}

func TestDecoderTrailingLine(t *testing.T) {
	dec := decodeAll([][]byte{[]byte("data: {\"response\":\"a\"}\ndata: {\"response\":\"b\"}")})
	require.Equal(t, "ab", dec.Response())

	dec = decodeAll([][]byte{[]byte("data: {\"response\":\"a\"}\ndata: not json")})
	require.Equal(t, "a", dec.Response())

	dec = decodeAll([][]byte{[]byte("data: {\"response\":\"a\"}\ndata: {\"respo")})
	require.Equal(t, "a", dec.Response())
}

func TestDecoderReportsThinkingProgress(t *testing.T) {
	var seen []string
	dec := NewDecoder(func(s string) { seen = append(seen, s) })
	_, _ = dec.Write([]byte("data: {\"thinking\":\"step1 \"}\ndata: {\"thin"))
	require.Equal(t, []string{"step1 "}, seen)
	_, _ = dec.Write([]byte("king\":\"step2\"}\n"))
	dec.Finish()
	require.Equal(t, []string{"step1 ", "step1 step2"}, seen)
}

func TestDecoderStructuredThinkingIsSerialized(t *testing.T) {
	dec := decodeAll([][]byte{[]byte("data: {\"thinking\":{\"step\":1}}\n")})
	require.Equal(t, `{"step":1}`, dec.Thinking())
	require.True(t, jsonvalue.LooksLikeJSON(dec.Thinking()))
}
