package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"backend-peakjournal/internal/blobstore"
	"backend-peakjournal/internal/shared/apperr"

	"github.com/pashagolub/pgxmock/v3"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func newTestService(t *testing.T) (*Service, pgxmock.PgxPoolIface, *blobstore.Memory) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	blobs := blobstore.NewMemory()
	return NewService(mock, nil, blobs), mock, blobs
}

func TestCreatePhotoStoresFile(t *testing.T) {
	svc, mock, blobs := newTestService(t)

	mock.ExpectQuery(`INSERT INTO expedition_media`).
		WithArgs(pgxmock.AnyArg(), "exp-1", "photo", pgxmock.AnyArg(), "", "Summit ridge", "", 0).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	m, err := svc.Create(context.Background(), "exp-1", Input{Type: TypePhoto, Title: "Summit ridge"},
		&blobstore.Upload{Filename: "ridge.png", Data: pngHeader})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !m.IsPhoto() || !strings.HasPrefix(m.FilePath, "expeditions/media/") {
		t.Fatalf("unexpected media: %+v", m)
	}
	if !blobs.Has(m.FilePath) {
		t.Fatal("photo blob not stored")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreatePhotoWithoutFile(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "exp-1", Input{Type: TypePhoto}, nil)
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Fields["file"] != "A photo upload is required for photo media." {
		t.Fatalf("unexpected message: %v", verr.Fields)
	}
}

func TestCreateVideoRequiresURL(t *testing.T) {
	svc, _, _ := newTestService(t)

	cases := []struct {
		name string
		url  string
	}{
		{"missing", ""},
		{"relative", "/clips/1"},
		{"hostless", "https://"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "exp-1", Input{Type: TypeVideo, VideoURL: tc.url}, nil)
			var verr *apperr.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := verr.Fields["video_url"]; !ok {
				t.Fatalf("expected video_url violation, got %v", verr.Fields)
			}
		})
	}
}

func TestCreateVideo(t *testing.T) {
	svc, mock, blobs := newTestService(t)

	mock.ExpectQuery(`INSERT INTO expedition_media`).
		WithArgs(pgxmock.AnyArg(), "exp-1", "video", "", "https://video.example/clip-1", "", "", 0).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	m, err := svc.Create(context.Background(), "exp-1", Input{Type: TypeVideo, VideoURL: "https://video.example/clip-1"}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !m.IsVideo() || m.FilePath != "" {
		t.Fatalf("unexpected media: %+v", m)
	}
	if blobs.Count() != 0 {
		t.Fatal("video media must not touch the blob store")
	}
}

func TestCreateReleasesFileOnInsertFailure(t *testing.T) {
	svc, mock, blobs := newTestService(t)

	mock.ExpectQuery(`INSERT INTO expedition_media`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("insert refused"))

	_, err := svc.Create(context.Background(), "exp-1", Input{Type: TypePhoto},
		&blobstore.Upload{Filename: "ridge.png", Data: pngHeader})
	if err == nil {
		t.Fatal("expected insert error")
	}
	if blobs.Count() != 0 {
		t.Fatalf("orphaned blob left behind, count=%d", blobs.Count())
	}
}

func TestUpdateRejectsVideoURLOnPhoto(t *testing.T) {
	svc, mock, _ := newTestService(t)
	now := time.Now()

	mock.ExpectQuery(`FROM expedition_media WHERE id=\$1 AND expedition_id=\$2`).
		WithArgs("med-1", "exp-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "expedition_id", "type", "file_path", "video_url", "title", "description", "position", "created_at", "updated_at"}).
			AddRow("med-1", "exp-1", "photo", "expeditions/media/x.png", "", "", "", 0, now, now))

	_, err := svc.Update(context.Background(), "exp-1", "med-1", Input{VideoURL: "https://video.example/clip"})
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Fields["video_url"]; !ok {
		t.Fatalf("expected video_url violation, got %v", verr.Fields)
	}
}

func TestDeleteReleasesStoredFile(t *testing.T) {
	svc, mock, blobs := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	ref, err := blobs.Save(ctx, blobPrefix, "ridge.png", pngHeader)
	if err != nil {
		t.Fatalf("seed blob: %v", err)
	}

	mock.ExpectQuery(`FROM expedition_media WHERE id=\$1 AND expedition_id=\$2`).
		WithArgs("med-1", "exp-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "expedition_id", "type", "file_path", "video_url", "title", "description", "position", "created_at", "updated_at"}).
			AddRow("med-1", "exp-1", "photo", ref, "", "", "", 0, now, now))
	mock.ExpectExec(`DELETE FROM expedition_media WHERE id=\$1`).
		WithArgs("med-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := svc.Delete(ctx, "exp-1", "med-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if blobs.Has(ref) {
		t.Fatal("stored file should be released with the record")
	}

	// The row goes first; a release failure must never resurrect it.
	if len(blobs.Ops) != 2 || blobs.Ops[1] != "delete:"+ref {
		t.Fatalf("unexpected blob ops: %v", blobs.Ops)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
