//go:generate go run go.uber.org/mock/mockgen -source=file_repository.go -destination=../../mocks/mock_file_repository.go -package=mocks
package storage

import (
	"fmt"
	"log/slog"
	"netquiz/domain"
	"netquiz/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type IFileRepository interface {
	SaveFile(info domain.FileInfo) error
	GetFile(name string) (domain.FileInfo, error)
	ListFiles() ([]domain.FileInfo, error)
}

// FileRepository keeps upload metadata. The bytes live in the files directory.
type FileRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewFileRepository(db *badger.DB, log *slog.Logger) *FileRepository {
	return &FileRepository{db: db, log: log}
}

func (r FileRepository) SaveFile(info domain.FileInfo) error {
	data, err := proto.Marshal(toPbFileInfo(info))
	if err != nil {
		return fmt.Errorf("marshal metadata of %s: %w", info.Name, err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(FilePrefix+info.Name), data)
	})
}

func (r FileRepository) GetFile(name string) (domain.FileInfo, error) {
	var pb structpb.Struct
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(FilePrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return proto.Unmarshal(val, &pb)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.FileInfo{}, fmt.Errorf("%s: %w", name, errors.ErrFileNotFound)
	}
	if err != nil {
		return domain.FileInfo{}, err
	}
	return fromPbFileInfo(name, &pb), nil
}

// ListFiles returns the metadata of every upload ordered by name.
func (r FileRepository) ListFiles() ([]domain.FileInfo, error) {
	var files []domain.FileInfo
	err := r.db.View(func(txn *badger.Txn) error {
		return keysWithPrefix(txn, FilePrefix, func(key []byte, item *badger.Item) error {
			return item.Value(func(val []byte) error {
				var pb structpb.Struct
				if err := proto.Unmarshal(val, &pb); err != nil {
					r.log.Warn("Skipping corrupted file metadata", "key", string(key), "error", err)
					return nil
				}
				files = append(files, fromPbFileInfo(string(key[len(FilePrefix):]), &pb))
				return nil
			})
		})
	})
	return files, err
}

func toPbFileInfo(info domain.FileInfo) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"size":        structpb.NewNumberValue(float64(info.Size)),
		"uploader":    structpb.NewStringValue(info.Uploader),
		"mime_type":   structpb.NewStringValue(info.MimeType),
		"sha256":      structpb.NewStringValue(info.Sha256),
		"uploaded_at": structpb.NewStringValue(info.UploadedAt.UTC().Format(time.RFC3339Nano)),
	}}
}

func fromPbFileInfo(name string, pb *structpb.Struct) domain.FileInfo {
	fields := pb.GetFields()
	uploadedAt, _ := time.Parse(time.RFC3339Nano, fields["uploaded_at"].GetStringValue())
	return domain.FileInfo{
		Name:       name,
		Size:       int64(fields["size"].GetNumberValue()),
		Uploader:   fields["uploader"].GetStringValue(),
		MimeType:   fields["mime_type"].GetStringValue(),
		Sha256:     fields["sha256"].GetStringValue(),
		UploadedAt: uploadedAt,
	}
}
