package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net"
	"netquiz/contract"
	"netquiz/domain"
	"netquiz/errors"
	"netquiz/infrastructure/storage"
	"netquiz/protocol"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const uploadPattern = ".upload-*"

// FileService serves the FILE tag over a flat shared directory.
type FileService struct {
	log       *slog.Logger
	repo      storage.IFileRepository
	announcer contract.Announcer
	dir       string
	maxUpload int64
}

func NewFileService(
	log *slog.Logger,
	repo storage.IFileRepository,
	announcer contract.Announcer,
	dir string,
	maxUpload int64,
) (*FileService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create files directory %s: %w", dir, err)
	}
	return &FileService{log: log, repo: repo, announcer: announcer, dir: dir, maxUpload: maxUpload}, nil
}

// CleanFileName accepts bare names only, so no request can reach outside the directory.
// Hidden names are refused as well, they are reserved for partial uploads.
func CleanFileName(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") ||
		strings.ContainsRune(name, 0) || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: %q", errors.ErrInvalidFileName, name)
	}
	return name, nil
}

func (s *FileService) Handle(_ context.Context, conn net.Conn, r *protocol.Reader, w *protocol.Writer) {
	defer func() { _ = conn.Close() }()

	cmd, err := r.ReadString()
	if err != nil {
		s.log.Debug("No file command received", "error", err)
		return
	}

	switch cmd {
	case protocol.CmdUpload:
		err = s.upload(conn, r, w)
	case protocol.CmdDownload:
		err = s.download(r, w)
	case protocol.CmdList:
		err = s.list(w)
	default:
		s.log.Warn("Unknown file command", "command", cmd)
		err = w.WriteString(protocol.ReplyError)
	}
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		s.log.Warn("File request failed", "command", cmd, "remote", conn.RemoteAddr().String(), "error", err)
	}
}

func (s *FileService) upload(conn net.Conn, r *protocol.Reader, w *protocol.Writer) error {
	rawName, err := r.ReadString()
	if err != nil {
		return err
	}
	uploader, err := r.ReadString()
	if err != nil {
		return err
	}
	size, err := r.ReadInt64()
	if err != nil {
		return err
	}
	// The payload may take longer than the routing deadline.
	_ = conn.SetReadDeadline(time.Time{})

	info, err := s.store(rawName, uploader, size, r)
	if err != nil {
		if werr := w.WriteString(protocol.ReplyError); werr != nil {
			return werr
		}
		return w.Flush()
	}

	if err := s.repo.SaveFile(info); err != nil {
		s.log.Error("File metadata not saved", "name", info.Name, "error", err)
	}
	s.log.Info("File uploaded",
		"name", info.Name,
		"uploader", info.Uploader,
		"size", info.Size,
		"mime", info.MimeType,
		"sha256", info.Sha256)
	s.announcer.Announce(domain.NewFileNotice(info.Name, info.Uploader))
	return w.WriteString(protocol.ReplySuccess)
}

// store streams size bytes into a temporary file and renames it into place.
func (s *FileService) store(rawName, uploader string, size int64, r *protocol.Reader) (domain.FileInfo, error) {
	if size < 0 || size > s.maxUpload {
		s.log.Warn("Upload refused", "name", rawName, "uploader", uploader, "size", size, "limit", s.maxUpload)
		return domain.FileInfo{}, fmt.Errorf("%s: %d bytes: %w", rawName, size, errors.ErrUploadTooLarge)
	}
	name, err := CleanFileName(rawName)
	if err != nil {
		s.log.Warn("Upload refused", "name", rawName, "uploader", uploader, "error", err)
		// Consume the payload so the refusal is read before the connection closes.
		_, _ = r.CopyTo(io.Discard, size)
		return domain.FileInfo{}, err
	}

	tmp, err := os.CreateTemp(s.dir, uploadPattern)
	if err != nil {
		return domain.FileInfo{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	h := sha256.New()
	_, err = r.CopyTo(io.MultiWriter(tmp, h), size)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		s.log.Warn("Upload interrupted", "name", name, "uploader", uploader, "error", err)
		return domain.FileInfo{}, err
	}

	target := filepath.Join(s.dir, name)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return domain.FileInfo{}, err
	}

	mime := "application/octet-stream"
	if mt, err := mimetype.DetectFile(target); err == nil {
		mime = mt.String()
	}
	return domain.FileInfo{
		Name:       name,
		Size:       size,
		Uploader:   uploader,
		MimeType:   mime,
		Sha256:     hex.EncodeToString(h.Sum(nil)),
		UploadedAt: time.Now().UTC(),
	}, nil
}

func (s *FileService) download(r *protocol.Reader, w *protocol.Writer) error {
	rawName, err := r.ReadString()
	if err != nil {
		return err
	}

	f, size, err := s.open(rawName)
	if err != nil {
		s.log.Info("Download refused", "name", rawName, "error", err)
		if err := w.WriteString(protocol.ReplyError); err != nil {
			return err
		}
		return w.WriteInt64(0)
	}
	defer func() { _ = f.Close() }()

	if info, err := s.repo.GetFile(rawName); err == nil {
		s.log.Info("File downloaded", "name", rawName, "size", size, "uploader", info.Uploader, "mime", info.MimeType)
	} else {
		s.log.Info("File downloaded", "name", rawName, "size", size)
	}

	if err := w.WriteString(protocol.ReplySuccess); err != nil {
		return err
	}
	if err := w.WriteInt64(size); err != nil {
		return err
	}
	_, err = w.CopyFrom(f, size)
	return err
}

func (s *FileService) open(rawName string) (*os.File, int64, error) {
	name, err := CleanFileName(rawName)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, 0, fmt.Errorf("%s: %w", name, errors.ErrFileNotFound)
	}
	if err != nil {
		return nil, 0, err
	}
	stat, err := f.Stat()
	if err != nil || !stat.Mode().IsRegular() {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%s: %w", name, errors.ErrFileNotFound)
	}
	return f, stat.Size(), nil
}

// Files lists the regular, non hidden files of the directory.
func (s *FileService) Files() ([]domain.FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var files []domain.FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, domain.FileInfo{Name: entry.Name(), Size: info.Size(), UploadedAt: info.ModTime()})
	}
	return files, nil
}

func (s *FileService) list(w *protocol.Writer) error {
	files, err := s.Files()
	if err != nil {
		return err
	}
	if err := w.WriteInt32(int32(len(files))); err != nil {
		return err
	}
	for _, f := range files {
		if err := w.WriteString(f.Name); err != nil {
			return err
		}
		if err := w.WriteInt64(f.Size); err != nil {
			return err
		}
	}
	return nil
}
