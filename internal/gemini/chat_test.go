package gemini

import (
	"testing"

	genai "google.golang.org/genai"
)

func TestExtractCitations(t *testing.T) {
	t.Run("URIとタイトルの組を抽出するのだ", func(t *testing.T) {
		md := &genai.GroundingMetadata{
			GroundingChunks: []*genai.GroundingChunk{
				{Web: &genai.GroundingChunkWeb{URI: "https://example.com/espresso", Title: "Espresso 101"}},
				{Web: &genai.GroundingChunkWeb{URI: "https://example.com/v60", Title: "V60 Guide"}},
			},
		}

		got := extractCitations(md)
		if len(got) != 2 {
			t.Fatalf("出典が2件のはずなのだ: %d", len(got))
		}
		if got[0].URI != "https://example.com/espresso" || got[0].Title != "Espresso 101" {
			t.Errorf("1件目の出典が違うのだ: %+v", got[0])
		}
	})

	t.Run("URIを欠くエントリは破棄するのだ", func(t *testing.T) {
		md := &genai.GroundingMetadata{
			GroundingChunks: []*genai.GroundingChunk{
				{Web: &genai.GroundingChunkWeb{URI: "", Title: "タイトルだけ"}},
				{Web: nil},
				nil,
				{Web: &genai.GroundingChunkWeb{URI: "https://example.com/beans", Title: "Beans"}},
			},
		}

		got := extractCitations(md)
		if len(got) != 1 {
			t.Fatalf("残るのは1件のはずなのだ: %d", len(got))
		}
		if got[0].URI != "https://example.com/beans" {
			t.Errorf("残った出典が違うのだ: %+v", got[0])
		}
	})

	t.Run("メタデータが無ければ何も返さないのだ", func(t *testing.T) {
		if got := extractCitations(nil); got != nil {
			t.Errorf("nil を期待したのだ: %+v", got)
		}
		empty := &genai.GroundingMetadata{}
		if got := extractCitations(empty); got != nil {
			t.Errorf("空のメタデータでも nil を期待したのだ: %+v", got)
		}
	})
}
