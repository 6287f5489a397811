// Package filestore resuelve un comprobante subido a una URL. El motor
// solo guarda la URL resultante; el almacenamiento real es de otro.
package filestore

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"strings"
)

type Resolver interface {
	Store(ctx context.Context, orderID string, file *multipart.FileHeader) (string, error)
}

// PathResolver arma una URL bajo un prefijo conocido sin mover bytes:
// el gateway de archivos sirve los blobs con ese mismo esquema.
type PathResolver struct {
	BaseURL string
}

func NewPathResolver(baseURL string) *PathResolver {
	return &PathResolver{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (r *PathResolver) Store(_ context.Context, orderID string, file *multipart.FileHeader) (string, error) {
	if file == nil || file.Filename == "" {
		return "", fmt.Errorf("archivo de comprobante vacío")
	}
	return fmt.Sprintf("%s/%s%s", r.BaseURL, orderID, path.Ext(file.Filename)), nil
}
