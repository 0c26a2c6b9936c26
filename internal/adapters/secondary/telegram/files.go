package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxDownloadSize Bot API отдаёт файлы до 20 МБ
const maxDownloadSize = 20 << 20

// File метаданные файла из getFile
type File struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
}

// GetFile получает путь файла для скачивания
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	req := struct {
		FileID string `json:"file_id"`
	}{FileID: fileID}

	var file File
	if err := c.call(ctx, "getFile", req, &file); err != nil {
		return nil, err
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("telegram returned empty file_path for %s", fileID)
	}
	return &file, nil
}

// DownloadFile скачивает содержимое файла по file_id
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fileBaseURL+"/"+file.FilePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read file body: %w", err)
	}

	c.log.Debug("file downloaded", "file_id", fileID, "size", len(data))
	return data, nil
}
