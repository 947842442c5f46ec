package v1

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

type download struct {
	filePath  string
	fileName  string
	expiresAt time.Time
}

// downloadStore 一次性下载令牌，过期或取走后删除暂存文件
type downloadStore struct {
	mu    sync.Mutex
	items map[string]download
}

func newDownloadStore() *downloadStore {
	return &downloadStore{
		items: make(map[string]download),
	}
}

func (s *downloadStore) put(filePath, fileName string, ttl time.Duration) (token string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.purgeExpiredLocked(now)

	token = uuid.NewString()
	expiresAt = now.Add(ttl)
	s.items[token] = download{
		filePath:  filePath,
		fileName:  fileName,
		expiresAt: expiresAt,
	}
	return token, expiresAt
}

// take 取出并作废令牌
func (s *downloadStore) take(token string) (download, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	v, ok := s.items[token]
	if !ok {
		return download{}, false
	}
	delete(s.items, token)
	return v, true
}

func (s *downloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
			_ = os.Remove(v.filePath)
		}
	}
}

func (s *downloadStore) purgeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.items {
		delete(s.items, k)
		_ = os.Remove(v.filePath)
	}
}

func (s *downloadStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked(time.Now())
	return len(s.items)
}
