package timeline

import "testing"

func TestNeedsTrim(t *testing.T) {
	tests := []struct {
		name           string
		trimStart      float64
		trimEnd        float64
		sourceDuration float64
		want           bool
	}{
		{"full source", 0, 10, 10, false},
		{"within tolerance", 0.005, 9.995, 10, false},
		{"trim start set", 2, 10, 10, true},
		{"trim end short", 0, 8, 10, true},
		{"both trimmed", 2, 5, 10, true},
		{"just past tolerance", 0.011, 10, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Clip{TrimStart: tt.trimStart, TrimEnd: tt.trimEnd, SourceDuration: tt.sourceDuration}
			if got := NeedsTrim(c); got != tt.want {
				t.Errorf("NeedsTrim(%g, %g, %g) = %v, want %v",
					tt.trimStart, tt.trimEnd, tt.sourceDuration, got, tt.want)
			}
		})
	}
}

func TestTrimmedDuration(t *testing.T) {
	c := Clip{TrimStart: 2.5, TrimEnd: 7.25}
	if got := TrimmedDuration(c); got != 4.75 {
		t.Errorf("TrimmedDuration = %g, want 4.75", got)
	}
}

func TestTotalDuration(t *testing.T) {
	clips := []Clip{
		{Duration: 10},
		{Duration: 5.5},
		{Duration: 0.5},
	}
	if got := TotalDuration(clips); got != 16 {
		t.Errorf("TotalDuration = %g, want 16", got)
	}
	if got := TotalDuration(nil); got != 0 {
		t.Errorf("TotalDuration(nil) = %g, want 0", got)
	}
}

func TestSortForManifest(t *testing.T) {
	clips := []Clip{
		{TrackID: "t2", StartTime: 0, FilePath: "c"},
		{TrackID: "t1", StartTime: 10, FilePath: "b"},
		{TrackID: "t1", StartTime: 0, FilePath: "a"},
	}

	sorted := SortForManifest(clips)

	wantOrder := []string{"a", "b", "c"}
	for i, want := range wantOrder {
		if sorted[i].FilePath != want {
			t.Fatalf("sorted[%d] = %s, want %s", i, sorted[i].FilePath, want)
		}
	}

	// Input order untouched.
	if clips[0].FilePath != "c" {
		t.Error("SortForManifest mutated its input")
	}
}

func TestQualityCRF(t *testing.T) {
	tests := []struct {
		quality string
		want    int
	}{
		{"high", 18},
		{"medium", 23},
		{"low", 28},
		{"unknown", 23},
	}
	for _, tt := range tests {
		if got := QualityCRF(tt.quality); got != tt.want {
			t.Errorf("QualityCRF(%q) = %d, want %d", tt.quality, got, tt.want)
		}
	}
}

func TestScaleFilter(t *testing.T) {
	if got := ScaleFilter("1080p"); got != "scale=1920:1080" {
		t.Errorf("ScaleFilter(1080p) = %q", got)
	}
	if got := ScaleFilter("720p"); got != "scale=1280:720" {
		t.Errorf("ScaleFilter(720p) = %q", got)
	}
	if got := ScaleFilter("source"); got != "" {
		t.Errorf("ScaleFilter(source) = %q, want empty", got)
	}
}

func TestContainerSets(t *testing.T) {
	if !IsSupportedSource("/x/video.MOV") {
		t.Error("MOV should be a supported source")
	}
	if IsSupportedSource("/x/video.wmv") {
		t.Error("wmv should not be a supported source")
	}
	if !IsCopySafe("/x/video.mkv") {
		t.Error("mkv should be copy-safe")
	}
	if IsCopySafe("/x/video.webm") {
		t.Error("webm should force re-encode")
	}
	if IsCopySafe("/x/video.avi") {
		t.Error("avi should force re-encode")
	}
}
