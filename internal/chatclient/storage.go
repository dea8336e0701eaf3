package chatclient

import (
	"encoding/json"
	"os"
	"sync"
)

// Storage abstrae el almacenamiento durable clave-valor del widget de chat.
// Modela el localStorage del navegador: escrituras best-effort, sin errores
// hacia el caller.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// MemStorage es un Storage en memoria para tests.
type MemStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemStorage() *MemStorage {
	return &MemStorage{data: make(map[string]string)}
}

func (s *MemStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemStorage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *MemStorage) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// FileStorage persiste las claves como un único objeto JSON en disco.
type FileStorage struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// NewFileStorage carga (o crea) el archivo de respaldo. Un archivo corrupto
// se descarta y se arranca vacío.
func NewFileStorage(path string) *FileStorage {
	s := &FileStorage{path: path, data: make(map[string]string)}
	if raw, err := os.ReadFile(path); err == nil {
		var data map[string]string
		if err := json.Unmarshal(raw, &data); err == nil && data != nil {
			s.data = data
		}
	}
	return s
}

func (s *FileStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *FileStorage) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.flush()
}

func (s *FileStorage) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	s.flush()
}

// flush escribe el estado completo; un fallo de disco no se propaga porque
// el storage es un espejo secundario, no la fuente de verdad.
func (s *FileStorage) flush() {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return
	}
	_ = os.WriteFile(s.path, raw, 0o600)
}
