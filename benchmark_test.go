package bilm

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeBenchCorpus writes shards of random sentences drawn from the test
// vocabulary plus some unknown words.
func writeBenchCorpus(b *testing.B, shards, linesPerShard int) string {
	b.Helper()
	dir := b.TempDir()
	words := append(append([]string(nil), vocabWords[3:]...), "dog",
		"elephant", "zebra", "walked")
	rng := rand.New(rand.NewSource(42))
	for shard := 0; shard < shards; shard++ {
		var sb strings.Builder
		for line := 0; line < linesPerShard; line++ {
			length := 5 + rng.Intn(30)
			for w := 0; w < length; w++ {
				if w > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(words[rng.Intn(len(words))])
			}
			sb.WriteByte('\n')
		}
		path := filepath.Join(dir, fmt.Sprintf("news.en-%05d-of-%05d",
			shard, shards))
		if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
			b.Fatal(err)
		}
	}
	return filepath.Join(dir, "news.en-*")
}

func BenchmarkShardStream_Next(b *testing.B) {
	b.StopTimer()
	pattern := writeBenchCorpus(b, 4, 2000)
	chars := loadTestChars(b, 50)
	stream, err := NewShardStream(pattern, chars, StreamOptions{
		Permutation:   Inward,
		ShuffleOnLoad: true,
		Rand:          rand.New(rand.NewSource(1)),
	})
	if err != nil {
		b.Fatal(err)
	}

	tokenCount := 0
	start := time.Now()
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		sentence, _, err := stream.Next()
		if err != nil {
			b.Fatal(err)
		}
		tokenCount += len(sentence.IDs)
	}
	b.StopTimer()
	elapsed := time.Since(start)
	b.ReportMetric(float64(tokenCount)/elapsed.Seconds(), "tokens/sec")
	b.ReportMetric(float64(stream.LoadedCount), "shards")
}

func BenchmarkMultidirectional_Batches(b *testing.B) {
	b.StopTimer()
	pattern := writeBenchCorpus(b, 4, 500)
	chars := loadTestChars(b, 50)
	dataset, err := NewMultidirectionalDataset(pattern, chars, 4,
		DatasetOptions{ShuffleOnLoad: true, Seed: 1})
	if err != nil {
		b.Fatal(err)
	}
	batchSize, numSteps := 32, 20
	batches, err := dataset.IterBatches(batchSize, numSteps)
	if err != nil {
		b.Fatal(err)
	}

	start := time.Now()
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		if _, err := batches.Next(); err != nil {
			b.Fatal(err)
		}
	}
	b.StopTimer()
	elapsed := time.Since(start)
	tokens := float64(b.N * batchSize * numSteps * 4)
	b.ReportMetric(tokens/elapsed.Seconds(), "tokens/sec")
	b.ReportMetric(float64(b.N)/elapsed.Seconds(), "batches/sec")
}

func BenchmarkCharsVocabulary_WordToCharIDs(b *testing.B) {
	b.StopTimer()
	chars := loadTestChars(b, 50)
	words := make([]string, 1024)
	for idx := range words {
		words[idx] = fmt.Sprintf("oov%d", idx)
	}
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		chars.WordToCharIDs(words[i%len(words)])
	}
	b.StopTimer()
	b.Logf("OOV cache: %d hits, %d misses", chars.OovHits, chars.OovMisses)
}
