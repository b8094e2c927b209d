package builder

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// resolveScreenshot locates an event's screenshot on disk. The recorded
// ss_path may be absolute, task-relative, or stale; as a last resort the
// bare filename is looked up inside the known screenshot directories.
// Returns the located source ("" when nothing exists) and the normalized
// slash-separated relative asset path.
func resolveScreenshot(taskDir, ssPath string, fallbackIndex int) (string, string) {
	raw := ssPath
	if raw == "" {
		raw = path.Join("imgs", fmt.Sprintf("event_%d.png", fallbackIndex))
	}

	native := filepath.FromSlash(raw)
	if filepath.IsAbs(native) && fileExists(native) {
		return native, normalizeRelPath(raw)
	}

	candidate := filepath.Join(taskDir, native)
	if fileExists(candidate) {
		return candidate, normalizeRelPath(raw)
	}

	base := filepath.Base(native)
	for _, dir := range screenshotDirs {
		alt := filepath.Join(taskDir, dir, base)
		if fileExists(alt) {
			return alt, path.Join(filepath.ToSlash(dir), base)
		}
	}

	return "", normalizeRelPath(raw)
}

// normalizeRelPath reduces an arbitrary recorded path to the portion
// rooted at a known screenshot directory, falling back to the last two
// segments for unrecognized layouts.
func normalizeRelPath(p string) string {
	segments := make([]string, 0, 8)
	for _, segment := range strings.Split(filepath.ToSlash(p), "/") {
		if segment == "" || segment == "." {
			continue
		}
		segments = append(segments, segment)
	}

	for i, segment := range segments {
		switch segment {
		case "imgs", "videos", "frames_display_1":
			return path.Join(segments[i:]...)
		}
	}

	switch {
	case len(segments) > 2:
		return path.Join(segments[len(segments)-2:]...)
	case len(segments) > 0:
		return path.Join(segments...)
	default:
		return "event.png"
	}
}

// findAnnotated looks for the screenshot's annotated overlay variant
// using the sibling-directory convention the annotation step writes:
// imgs/ and frames_display_*/ get an "_annotated" sibling, anything else
// an annotated/ subdirectory. Returns "" when no variant exists.
func findAnnotated(source string) string {
	dir := filepath.Dir(source)
	name := filepath.Base(source)
	parent := filepath.Base(dir)

	var candidate string
	if strings.HasPrefix(parent, "frames_display_") || parent == "imgs" {
		candidate = filepath.Join(filepath.Dir(dir), parent+"_annotated", name)
	} else {
		candidate = filepath.Join(dir, "annotated", name)
	}

	if fileExists(candidate) {
		return candidate
	}
	return ""
}

// annotatedRelPath mirrors findAnnotated's convention onto the
// normalized relative asset path.
func annotatedRelPath(rel string) string {
	dir, name := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" {
		return path.Join("annotated", name)
	}

	parent := path.Base(dir)
	if strings.HasPrefix(parent, "frames_display_") || parent == "imgs" {
		return path.Join(path.Dir(dir), parent+"_annotated", name)
	}
	return path.Join(dir, "annotated", name)
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func copyFile(source, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating asset dir: %w", err)
	}

	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("opening asset %s: %w", source, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating asset %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying asset to %s: %w", dest, err)
	}
	return out.Close()
}
