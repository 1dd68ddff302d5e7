package localfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Backend guarda cada colección como un archivo JSON dentro de un directorio.
type Backend struct {
	dir string
}

func New(dir string) (*Backend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("directorio de datos vacío")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio %s: %w", dir, err)
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) path(collection string) string {
	return filepath.Join(b.dir, collection+".json")
}

// Load devuelve nil si la colección nunca se guardó.
func (b *Backend) Load(collection string) ([]byte, error) {
	data, err := os.ReadFile(b.path(collection))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leer %s: %w", collection, err)
	}
	return data, nil
}

// Save reemplaza el archivo de la colección de forma atómica.
func (b *Backend) Save(collection string, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, collection+"-*.tmp")
	if err != nil {
		return fmt.Errorf("guardar %s: %w", collection, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("guardar %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("guardar %s: %w", collection, err)
	}
	if err := os.Rename(tmp.Name(), b.path(collection)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("guardar %s: %w", collection, err)
	}
	return nil
}

// SaveAll escribe primero todos los temporales y sólo si todos quedaron bien los
// renombra, en el orden dado.
func (b *Backend) SaveAll(order []string, docs map[string][]byte) error {
	staged := make(map[string]string, len(order))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}
	for _, name := range order {
		tmp, err := os.CreateTemp(b.dir, name+"-*.tmp")
		if err != nil {
			cleanup()
			return fmt.Errorf("guardar %s: %w", name, err)
		}
		staged[name] = tmp.Name()
		if _, err := tmp.Write(docs[name]); err != nil {
			tmp.Close()
			cleanup()
			return fmt.Errorf("guardar %s: %w", name, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return fmt.Errorf("guardar %s: %w", name, err)
		}
	}
	for _, name := range order {
		if err := os.Rename(staged[name], b.path(name)); err != nil {
			cleanup()
			return fmt.Errorf("guardar %s: %w", name, err)
		}
		delete(staged, name)
	}
	return nil
}
