package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

func testLog() *logger.Logger {
	return logger.New(logger.LevelOff, nil)
}

// buildWAV wraps raw PCM in a minimal RIFF container for extractPCM tests.
func buildWAV(pcm []byte) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(pcm)))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(ChannelCount))
	binary.Write(&b, binary.LittleEndian, uint32(SampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(SampleRate*ChannelCount*BitDepth/8))
	binary.Write(&b, binary.LittleEndian, uint16(ChannelCount*BitDepth/8))
	binary.Write(&b, binary.LittleEndian, uint16(BitDepth))

	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}

func TestExtractPCM(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	got, err := extractPCM(buildWAV(pcm))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("pcm = %v, want %v", got, pcm)
	}
}

func TestExtractPCMRejectsGarbage(t *testing.T) {
	if _, err := extractPCM([]byte("definitely not a wav file")); err == nil {
		t.Error("expected error for non-RIFF input")
	}
	if _, err := extractPCM(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestRenderChimeShape(t *testing.T) {
	pcm := RenderChime(SampleRate)

	if len(pcm)%2 != 0 {
		t.Fatal("PCM length must be an even number of bytes (16-bit samples)")
	}

	// Two notes plus the gap.
	wantSamples := 2*int(chimeNoteSecs*float64(SampleRate)) + int(chimeGapSecs*float64(SampleRate))
	if got := len(pcm) / 2; got != wantSamples {
		t.Errorf("samples = %d, want %d", got, wantSamples)
	}

	// Deterministic rendering.
	if !bytes.Equal(pcm, RenderChime(SampleRate)) {
		t.Error("chime must render identically every time")
	}

	// The clip must not be silence.
	silent := true
	for _, b := range pcm {
		if b != 0 {
			silent = false
			break
		}
	}
	if silent {
		t.Error("chime PCM is all zeros")
	}
}

func TestAudioCacheMemoryTier(t *testing.T) {
	c := NewAudioCache(t.TempDir(), false, testLog())

	if _, ok := c.Get(domain.DefaultVoice, "hello"); ok {
		t.Error("unexpected hit on empty cache")
	}

	c.Put(domain.DefaultVoice, "hello", []byte{1, 2, 3})
	got, ok := c.Get(domain.DefaultVoice, "hello")
	if !ok || !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("get = %v, %v", got, ok)
	}

	// Same text under another voice is a distinct key.
	if _, ok := c.Get("en-GB-SoniaNeural", "hello"); ok {
		t.Error("voice must be part of the cache key")
	}
}

func TestAudioCacheDiskTier(t *testing.T) {
	dir := t.TempDir()

	first := NewAudioCache(dir, true, testLog())
	first.Put(domain.DefaultVoice, "persisted line", []byte{7, 8})

	// A fresh cache over the same directory reads the disk entry.
	second := NewAudioCache(dir, true, testLog())
	got, ok := second.Get(domain.DefaultVoice, "persisted line")
	if !ok || !bytes.Equal(got, []byte{7, 8}) {
		t.Errorf("disk read = %v, %v", got, ok)
	}
}

func TestNoOpSynthesizer(t *testing.T) {
	s := NewNoOpSynthesizer(testLog())
	if _, err := s.Synthesize(context.Background(), "text", domain.DefaultVoice); !errors.Is(err, domain.ErrSynthUnavailable) {
		t.Errorf("err = %v, want ErrSynthUnavailable", err)
	}

	p := NewNoOpPlayer(testLog())
	if err := p.Play(nil); !errors.Is(err, domain.ErrSynthUnavailable) {
		t.Errorf("play err = %v, want ErrSynthUnavailable", err)
	}
	if err := p.PlayChime(); !errors.Is(err, domain.ErrSynthUnavailable) {
		t.Errorf("chime err = %v, want ErrSynthUnavailable", err)
	}
}

func TestBuildSSML(t *testing.T) {
	ssml := buildSSML("Attention. Period 1.", "id-ID-ArdiNeural")

	for _, want := range []string{
		`xml:lang='id-ID'`,
		`name='id-ID-ArdiNeural'`,
		"Attention. Period 1.",
	} {
		if !strings.Contains(ssml, want) {
			t.Errorf("ssml missing %q: %s", want, ssml)
		}
	}

	// Language derives from the voice prefix.
	if !strings.Contains(buildSSML("x", "en-GB-SoniaNeural"), `xml:lang='en-GB'`) {
		t.Error("expected en-GB language for a British voice")
	}
}

func TestBuildSSMLEscapesText(t *testing.T) {
	ssml := buildSSML("Smith & Sons <Lab>", "en-US-AvaNeural")

	if strings.Contains(ssml, "Smith & Sons <Lab>") {
		t.Errorf("free text must be XML-escaped: %s", ssml)
	}
	if !strings.Contains(ssml, "Smith &amp; Sons &lt;Lab&gt;") {
		t.Errorf("escaped text missing: %s", ssml)
	}
}
