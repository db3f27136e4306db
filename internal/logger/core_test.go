package logger

import (
	"context"
	"sync"
	"testing"
	"time"

	common_models "go-social/internal/common/models"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memorySink struct {
	mu   sync.Mutex
	logs []common_models.Log
}

func (s *memorySink) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, document.(common_models.Log))
	return &mongo.InsertOneResult{}, nil
}

func TestDBCoreTeesEntries(t *testing.T) {
	sink := &memorySink{}
	writer := NewDBLogWriter(sink, "test-app", 10)
	base, observed := observer.New(zapcore.InfoLevel)
	log := zap.New(NewDBCore(base, writer)).With(zap.String("user_id", "u1"))

	log.Info("joined group", zap.String("ip", "10.0.0.1"))
	log.Debug("filtered out")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := writer.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if observed.Len() != 1 {
		t.Fatalf("console entries = %d, want 1", observed.Len())
	}
	if len(sink.logs) != 1 {
		t.Fatalf("persisted entries = %d, want 1", len(sink.logs))
	}
	got := sink.logs[0]
	if got.Message != "joined group" || got.IpAddress != "10.0.0.1" || got.UserID != "u1" {
		t.Errorf("persisted log = %+v", got)
	}
	if got.AppID != "test-app" || got.LogLevelId != 20 {
		t.Errorf("persisted log app/level = %q/%d", got.AppID, got.LogLevelId)
	}
}

func TestAddLogAfterCloseDoesNotPanic(t *testing.T) {
	writer := NewDBLogWriter(&memorySink{}, "app", 1)
	_ = writer.Close(context.Background())
	writer.AddLog(LogEntry{Message: "late"})
}
