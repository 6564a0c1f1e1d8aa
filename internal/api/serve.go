// Package api — serve.go: мост к GUI-оболочке через JSON-строки.
// Каждая строка входа — запрос {"id":…, "cmd":"create_karma", "args":{…}},
// на каждую пишется строка ответа с тем же id.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"
)

const maxRequestSize = 1 << 20

// Request — вызов команды от оболочки.
type Request struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Command string          `json:"cmd"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// Response — результат вызова. Error заполнен только при OK == false.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	OK     bool            `json:"ok"`
	Result any             `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Serve читает запросы из in и пишет ответы в out, пока вход не закончится
// или не отменят ctx. Запросы обрабатываются параллельно, не более maxInflight сразу,
// поэтому порядок ответов может отличаться от порядка запросов.
func (r *Router) Serve(ctx context.Context, in io.Reader, out io.Writer, maxInflight int) error {
	if maxInflight <= 0 {
		maxInflight = 1
	}

	reader := bufio.NewReaderSize(in, 64*1024)

	var (
		writeMu  sync.Mutex
		wg       sync.WaitGroup
		inflight = make(chan struct{}, maxInflight)
		enc      = json.NewEncoder(out)
	)
	write := func(resp Response) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := enc.Encode(resp); err != nil {
			log.WithError(err).Error("Ошибка записи ответа")
		}
	}

	log.WithField("max_inflight", maxInflight).Info("Ожидаем команды...")
	defer wg.Wait()

	for ctx.Err() == nil {
		line, tooLong, err := readRequest(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("ошибка чтения запросов: %w", err)
		}
		if tooLong {
			// строка уже пропущена целиком, продолжаем со следующей
			write(Response{Error: &Error{
				Kind:    KindInvalidArguments,
				Message: fmt.Sprintf("запрос длиннее %d байт", maxRequestSize),
			}})
			continue
		}
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			write(Response{Error: &Error{Kind: KindInvalidArguments, Message: "некорректный запрос", Err: err}})
			continue
		}

		// лимит параллелизма
		select {
		case inflight <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			defer func() { <-inflight }()
			write(r.handle(ctx, req))
		}(req)
	}

	return ctx.Err()
}

// readRequest читает одну строку запроса. Строка длиннее maxRequestSize
// дочитывается до конца и отбрасывается, тогда tooLong == true.
func readRequest(rd *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, isPrefix, err := rd.ReadLine()
		if err != nil {
			return nil, false, err
		}
		if !tooLong {
			if len(line)+len(chunk) > maxRequestSize {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, tooLong, nil
		}
	}
}

func (r *Router) handle(ctx context.Context, req Request) Response {
	result, err := r.Invoke(ctx, req.Command, req.Args)
	if err != nil {
		return Response{ID: req.ID, Error: asError(err)}
	}
	return Response{ID: req.ID, OK: true, Result: result}
}
