package assets

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	"image/png"
	"io"
	"nest-server/core"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"
)

const (
	defaultThumbnailWidth = 200
	maxThumbnailSide      = 1024
)

func notFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, map[string]string{"error": "Not found"})
}

func readAsset(w http.ResponseWriter, r *http.Request, store core.AssetStore) (string, []byte, bool) {
	name := chi.URLParam(r, "name")
	assetPath := core.AssetPrefix + name
	log := logrus.WithField("asset_path", assetPath)

	if _, ok := core.AssetKey(assetPath); !ok {
		notFound(w, r)
		return "", nil, false
	}

	rc, err := store.Open(r.Context(), assetPath)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Warn("Asset not found")
			notFound(w, r)
			return "", nil, false
		}
		log.WithError(err).Error("Failed to open asset")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "Failed to read asset"})
		return "", nil, false
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		log.WithError(err).Error("Failed to read asset")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "Failed to read asset"})
		return "", nil, false
	}
	return name, data, true
}

// HandleImage serves GET /images/{name}.
func HandleImage(store core.AssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, data, ok := readAsset(w, r, store)
		if !ok {
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
	}
}

func dimension(r *http.Request, key string, def uint) (uint, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v > maxThumbnailSide {
		return 0, false
	}
	return uint(v), true
}

// HandleThumbnail serves GET /thumbnails/{name}?w=&h=. A zero or missing side
// keeps the aspect ratio.
func HandleThumbnail(store core.AssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		width, okW := dimension(r, "w", defaultThumbnailWidth)
		height, okH := dimension(r, "h", 0)
		if !okW || !okH || (width == 0 && height == 0) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "w and h must be between 0 and 1024"})
			return
		}

		name, data, ok := readAsset(w, r, store)
		if !ok {
			return
		}

		img, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			logrus.WithError(err).WithField("asset", name).Warn("Asset is not a decodable image")
			render.Status(r, http.StatusUnsupportedMediaType)
			render.JSON(w, r, map[string]string{"error": "Asset is not an image"})
			return
		}

		thumb := resize.Resize(width, height, img, resize.Lanczos3)

		var buf bytes.Buffer
		switch format {
		case "jpeg":
			w.Header().Set("Content-Type", "image/jpeg")
			err = jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85})
		default:
			w.Header().Set("Content-Type", "image/png")
			err = png.Encode(&buf, thumb)
		}
		if err != nil {
			logrus.WithError(err).WithField("asset", name).Error("Failed to encode thumbnail")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to create thumbnail"})
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write(buf.Bytes())
	}
}
