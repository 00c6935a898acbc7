package main

import (
	"regexp"
	"testing"
)

func TestAddListRemoveRoundTrip(t *testing.T) {
	configPath := setupCLIConfig(t)
	source := writeFixturePNG(t, t.TempDir())

	out, _, err := runCLI(t, configPath, "add", source, "--folder", "gallery")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Stored photo.png as asset")
	requireContains(t, out, "URL: /media/gallery/")
	requireContains(t, out, "Thumbnail: /media/gallery/")

	idMatch := regexp.MustCompile(`asset (\d+)`).FindStringSubmatch(out)
	if idMatch == nil {
		t.Fatalf("no asset id in output: %q", out)
	}
	id := idMatch[1]

	out, _, err = runCLI(t, configPath, "ls", "--folder", "gallery")
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	requireContains(t, out, "photo.png")
	requireContains(t, out, "image/png")

	out, _, err = runCLI(t, configPath, "show", id)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, `"originalName": "photo.png"`)

	out, _, err = runCLI(t, configPath, "rm", id)
	if err != nil {
		t.Fatalf("rm: %v", err)
	}
	requireContains(t, out, "Deleted asset "+id)

	out, _, err = runCLI(t, configPath, "ls")
	if err != nil {
		t.Fatalf("ls after rm: %v", err)
	}
	requireContains(t, out, "No media assets found")
}

func TestAddRejectsDisallowedType(t *testing.T) {
	configPath := setupCLIConfig(t)
	source := writeFixturePNG(t, t.TempDir())

	if _, _, err := runCLI(t, configPath, "add", source, "--mime", "application/zip"); err == nil {
		t.Fatal("expected rejection for disallowed mime type")
	}
}

func TestOptimizeCommand(t *testing.T) {
	configPath := setupCLIConfig(t)
	source := writeFixturePNG(t, t.TempDir())

	out, _, err := runCLI(t, configPath, "optimize", source, "--folder", "projects")
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	requireContains(t, out, `"thumbnail"`)
	requireContains(t, out, `"large"`)
}

func TestStatsCommand(t *testing.T) {
	configPath := setupCLIConfig(t)
	source := writeFixturePNG(t, t.TempDir())

	if _, _, err := runCLI(t, configPath, "add", source, "--folder", "gallery"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, _, err := runCLI(t, configPath, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "gallery")
	requireContains(t, out, "Total:")
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		512:     "512 B",
		2048:    "2.0 KiB",
		5 << 20: "5.0 MiB",
		3 << 30: "3.0 GiB",
	}
	for input, want := range cases {
		if got := formatBytes(input); got != want {
			t.Fatalf("formatBytes(%d) = %q, want %q", input, got, want)
		}
	}
}
