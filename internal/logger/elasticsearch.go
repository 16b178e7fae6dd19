package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
)

// ESConfig holds Elasticsearch connection settings for log shipping.
type ESConfig struct {
	Enabled   bool
	Addresses []string
	Index     string
}

// logDoc is the document indexed per log line.
type logDoc struct {
	Timestamp string `json:"@timestamp"`
	Message   string `json:"message"`
}

// esWriter ships log lines to Elasticsearch from a background goroutine so a
// slow cluster never stalls the logging path. Lines are dropped when the
// buffer is full.
type esWriter struct {
	client *elasticsearch.Client
	index  string
	ch     chan []byte
	done   chan struct{}
	wg     sync.WaitGroup
	closed sync.Once
}

func newESWriter(cfg *ESConfig) (*esWriter, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
	})
	if err != nil {
		return nil, err
	}

	w := &esWriter{
		client: client,
		index:  cfg.Index,
		ch:     make(chan []byte, 1024),
		done:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *esWriter) run() {
	defer w.wg.Done()
	ctx := context.Background()
	for {
		select {
		case <-w.done:
			return
		case p, ok := <-w.ch:
			if !ok {
				return
			}
			msg := strings.TrimSuffix(string(p), "\n")
			if msg == "" {
				continue
			}
			doc := logDoc{
				Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
				Message:   msg,
			}
			body, _ := json.Marshal(doc)
			req := esapi.IndexRequest{
				Index:   w.index,
				Body:    bytes.NewReader(body),
				Refresh: "false",
			}
			res, err := req.Do(ctx, w.client)
			if err != nil {
				continue
			}
			res.Body.Close()
		}
	}
}

// Write queues one log line for indexing; never blocks.
func (w *esWriter) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case w.ch <- cp:
	default:
	}
	return len(p), nil
}

// Close stops the background indexer.
func (w *esWriter) Close() {
	w.closed.Do(func() {
		close(w.done)
		w.wg.Wait()
	})
}
