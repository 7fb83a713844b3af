// Package storage persists uploaded files on local disk or in Cloudinary.
package storage

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Allowed maps accepted content types to the extension files are saved with.
var Allowed = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}

// Store saves one file and returns its public URL.
type Store interface {
	Save(ctx context.Context, contentType string, r io.Reader) (string, error)
}

// Open checks a multipart file against the size limit and sniffs its real content type.
// The returned reader yields the whole file.
func Open(fh *multipart.FileHeader, maxBytes int64) (io.ReadCloser, string, error) {
	if fh.Size > maxBytes {
		return nil, "", ErrFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", errors.Wrap(err, "open upload")
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		_ = f.Close()
		return nil, "", errors.Wrap(err, "read upload")
	}
	ct := http.DetectContentType(head[:n])
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	if _, ok := Allowed[ct]; !ok {
		_ = f.Close()
		return nil, "", ErrUnsupportedType
	}
	return readCloser{Reader: io.MultiReader(bytes.NewReader(head[:n]), f), Closer: f}, ct, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// Disk writes files under Dir and serves them from URLPrefix.
type Disk struct {
	Dir       string
	URLPrefix string
}

func NewDisk(dir, urlPrefix string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create media dir")
	}
	return &Disk{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (d *Disk) Save(_ context.Context, contentType string, r io.Reader) (string, error) {
	name := uuid.NewString() + Allowed[contentType]
	f, err := os.OpenFile(filepath.Join(d.Dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create media file")
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "write media file")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "close media file")
	}
	return d.URLPrefix + "/" + name, nil
}

// Cloudinary uploads into a folder of the configured cloud.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cloudinaryURL, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary init")
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

func (c *Cloudinary) Save(ctx context.Context, contentType string, r io.Reader) (string, error) {
	res, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:   c.folder,
		PublicID: uuid.NewString(),
	})
	if err != nil {
		return "", errors.Wrap(err, "cloudinary upload")
	}
	if res.Error.Message != "" {
		return "", errors.New("cloudinary upload: " + res.Error.Message)
	}
	return res.SecureURL, nil
}
