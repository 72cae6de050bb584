package drafts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

func TestLocalSaverExplicitTarget(t *testing.T) {
	dir := t.TempDir()
	saver := NewLocalSaver(dir)

	target := filepath.Join(dir, "reply.txt")
	path, err := saver.Save(context.Background(), "Dear Alice,\nThanks.", target)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if path != target {
		t.Errorf("path = %q, want %q", path, target)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved draft: %v", err)
	}
	if string(data) != "Dear Alice,\nThanks." {
		t.Errorf("saved content = %q", data)
	}
}

func TestLocalSaverDefaultName(t *testing.T) {
	dir := t.TempDir()
	saver := NewLocalSaver(dir)

	path, err := saver.Save(context.Background(), "draft body", "")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "draft_") || !strings.HasSuffix(name, ".txt") {
		t.Errorf("default name = %q, want draft_<timestamp>.txt", name)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("draft saved outside configured dir: %q", path)
	}
}

func TestLocalSaverDirectoryTarget(t *testing.T) {
	dir := t.TempDir()
	saver := NewLocalSaver(dir)

	path, err := saver.Save(context.Background(), "draft body", filepath.Join(dir, "outbox")+"/")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, "outbox") {
		t.Errorf("path = %q, want file inside outbox/", path)
	}
}

func TestLocalSaverRejectsEmptyDraft(t *testing.T) {
	saver := NewLocalSaver(t.TempDir())
	if _, err := saver.Save(context.Background(), "   ", ""); !errors.Is(err, models.ErrEmptyDraft) {
		t.Errorf("error = %v, want ErrEmptyDraft", err)
	}
}

type fakeS3 struct {
	headErr   error
	putInput  *s3.PutObjectInput
	putCalled bool
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putCalled = true
	f.putInput = params
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestS3SaverUploadsWithPrefix(t *testing.T) {
	fake := &fakeS3{}
	saver := newS3SaverWithClient(fake, "drafts-bucket", "outgoing")

	uri, err := saver.Save(context.Background(), "draft body", "reply.txt")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if uri != "s3://drafts-bucket/outgoing/reply.txt" {
		t.Errorf("uri = %q", uri)
	}
	if !fake.putCalled || *fake.putInput.Key != "outgoing/reply.txt" {
		t.Errorf("unexpected put key: %+v", fake.putInput)
	}
}

func TestS3SaverDefaultKey(t *testing.T) {
	fake := &fakeS3{}
	saver := newS3SaverWithClient(fake, "drafts-bucket", "")

	uri, err := saver.Save(context.Background(), "draft body", "")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasPrefix(uri, "s3://drafts-bucket/draft_") || !strings.HasSuffix(uri, ".txt") {
		t.Errorf("uri = %q, want generated draft key", uri)
	}
}

func TestS3SaverUnreachableBucket(t *testing.T) {
	fake := &fakeS3{headErr: errors.New("403 forbidden")}
	saver := newS3SaverWithClient(fake, "drafts-bucket", "")

	if _, err := saver.Save(context.Background(), "draft body", ""); err == nil {
		t.Fatalf("expected error for unreachable bucket")
	}
	if fake.putCalled {
		t.Errorf("PutObject called despite failed bucket check")
	}
}

func TestS3SaverRejectsEmptyDraft(t *testing.T) {
	saver := newS3SaverWithClient(&fakeS3{}, "drafts-bucket", "")
	if _, err := saver.Save(context.Background(), "", ""); !errors.Is(err, models.ErrEmptyDraft) {
		t.Errorf("error = %v, want ErrEmptyDraft", err)
	}
}
