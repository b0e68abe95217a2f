package icons

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/webp" // Register WebP format
)

// IconFile is one icon candidate discovered inside an extracted bundle
type IconFile struct {
	Path string
	Size string // "48x48", "256x256" or "scalable"
	Ext  string
}

var sizeRe = regexp.MustCompile(`(\d+)x(\d+)`)

// Finder locates icon candidates inside extracted application trees
type Finder struct {
	fs afero.Fs
}

// NewFinder creates a Finder over the given filesystem
func NewFinder(fs afero.Fs) *Finder {
	return &Finder{fs: fs}
}

// Discover walks sourceDir collecting icon files by extension
func (f *Finder) Discover(sourceDir string) ([]IconFile, error) {
	var found []IconFile

	err := afero.Walk(f.fs, sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		ext := strings.ToLower(filepath.Ext(path))
		isIcon := ext == ".png" || ext == ".svg" || ext == ".ico" || ext == ".xpm" ||
			ext == ".bmp" || ext == ".webp" || base == ".DirIcon"
		if !isIcon {
			return nil
		}
		if info.Size() < 100 && base != ".DirIcon" {
			return nil
		}

		found = append(found, IconFile{
			Path: path,
			Size: f.detectSize(path),
			Ext:  strings.TrimPrefix(ext, "."),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", sourceDir, err)
	}
	return found, nil
}

// FindBest picks the icon to reference from a desktop entry. AppImage
// convention puts the definitive icon at the bundle root, either as
// .DirIcon or as <something>.png/svg, so root-level candidates win;
// ties break toward scalable, then the largest raster.
func (f *Finder) FindBest(sourceDir string) (IconFile, bool) {
	candidates, err := f.Discover(sourceDir)
	if err != nil || len(candidates) == 0 {
		return IconFile{}, false
	}

	cleanRoot := filepath.Clean(sourceDir)
	sort.SliceStable(candidates, func(i, j int) bool {
		return f.score(candidates[i], cleanRoot) > f.score(candidates[j], cleanRoot)
	})
	return candidates[0], true
}

func (f *Finder) score(ic IconFile, root string) int {
	score := 0
	if filepath.Dir(filepath.Clean(ic.Path)) == root {
		score += 1000
	}
	if filepath.Base(ic.Path) == ".DirIcon" {
		score += 500
	}
	if ic.Size == "scalable" {
		score += 400
	} else if m := sizeRe.FindStringSubmatch(ic.Size); len(m) == 3 {
		if w, err := strconv.Atoi(m[1]); err == nil {
			if w > 256 {
				w = 256
			}
			score += w
		}
	}
	return score
}

// detectSize infers an icon size from the path or the image header
func (f *Finder) detectSize(iconPath string) string {
	if m := sizeRe.FindStringSubmatch(iconPath); len(m) >= 1 {
		return m[0]
	}
	lower := strings.ToLower(iconPath)
	if strings.Contains(lower, "scalable") || strings.HasSuffix(lower, ".svg") {
		return "scalable"
	}
	if size := f.imageDimensions(iconPath); size != "" {
		return size
	}
	return "48x48"
}

// imageDimensions reads WxH from the image header for registered formats
func (f *Finder) imageDimensions(imagePath string) string {
	file, err := f.fs.Open(imagePath)
	if err != nil {
		return ""
	}
	defer file.Close()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return ""
	}

	// hicolor expects square sizes, round a non-square image up
	side := config.Width
	if config.Height > side {
		side = config.Height
	}
	return fmt.Sprintf("%dx%d", side, side)
}

// NormalizeIconName converts a file name into a desktop-safe icon name
func NormalizeIconName(rawName string) string {
	base := filepath.Base(rawName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(base)

	reg := regexp.MustCompile(`[^a-z0-9._-]`)
	return reg.ReplaceAllString(base, "-")
}
