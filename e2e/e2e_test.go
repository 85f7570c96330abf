package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/cabinet"
)

// TestE2E_SQLite drives the full API over an in-memory SQLite metadata store.
func TestE2E_SQLite(t *testing.T) {
	store := newMemoryObjectStore("cabinet")
	baseURL := startServer(t, newSQLiteRepo(t), store)

	runFileManagerSuite(t, baseURL, store)
}

// runFileManagerSuite exercises the folder and file lifecycle end to end.
// Sub-tests build on each other and must run in order.
func runFileManagerSuite(t *testing.T, baseURL string, store *memoryObjectStore) {
	t.Helper()
	client := &http.Client{}

	var (
		parentFolder cabinet.Folder
		childFolder  cabinet.Folder
		uploaded     cabinet.FileRecord
	)

	t.Run("health endpoint responds", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("create folder at root", func(t *testing.T) {
		resp := postJSON(t, client, baseURL+"/files/folders", `{"name": "Documents"}`)
		defer resp.Body.Close()

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&parentFolder))
		assert.NotEmpty(t, parentFolder.UUID)
		assert.Equal(t, "Documents", parentFolder.DisplayName)
		assert.Nil(t, parentFolder.ParentUUID)
	})

	t.Run("create nested folder", func(t *testing.T) {
		body := fmt.Sprintf(`{"name": "Invoices", "parent_uuid": %q}`, parentFolder.UUID)
		resp := postJSON(t, client, baseURL+"/files/folders", body)
		defer resp.Body.Close()

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&childFolder))
		require.NotNil(t, childFolder.ParentUUID)
		assert.Equal(t, parentFolder.UUID, *childFolder.ParentUUID)
	})

	t.Run("empty folder name rejected", func(t *testing.T) {
		resp := postJSON(t, client, baseURL+"/files/folders", `{"name": ""}`)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("root content lists the folder", func(t *testing.T) {
		content := getContent(t, client, baseURL, "")
		require.Len(t, content.Folders, 1)
		assert.Equal(t, parentFolder.UUID, content.Folders[0].UUID)
		assert.Empty(t, content.Files)
	})

	t.Run("breadcrumbs walk root to leaf", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/files/breadcrumbs?folder_uuid=" + childFolder.UUID)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var crumbs []cabinet.Breadcrumb
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&crumbs))
		require.Len(t, crumbs, 3)
		assert.Equal(t, cabinet.RootFolder, crumbs[0].UUID)
		assert.Equal(t, parentFolder.UUID, crumbs[1].UUID)
		assert.Equal(t, childFolder.UUID, crumbs[2].UUID)
	})

	t.Run("upload file into folder", func(t *testing.T) {
		body, contentType := multipartBody(t, "report.txt", "text/plain", []byte("quarterly numbers"), parentFolder.UUID)

		resp, err := client.Post(baseURL+"/files/upload", contentType, body)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
		assert.NotZero(t, uploaded.ID)
		assert.Equal(t, "report.txt", uploaded.OriginalName)
		assert.Equal(t, parentFolder.UUID, uploaded.FolderUUID)
		assert.Equal(t, 1, store.objectCount())
	})

	t.Run("folder content lists the file", func(t *testing.T) {
		content := getContent(t, client, baseURL, parentFolder.UUID)
		require.Len(t, content.Files, 1)
		assert.Equal(t, uploaded.ID, content.Files[0].ID)
	})

	t.Run("download streams bytes with attachment headers", func(t *testing.T) {
		resp, err := client.Get(fmt.Sprintf("%s/files/download/%d", baseURL, uploaded.ID))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
		assert.Equal(t, "attachment; filename*=UTF-8''report.txt", resp.Header.Get("Content-Disposition"))

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "quarterly numbers", string(data))
	})

	t.Run("presigned upload flow", func(t *testing.T) {
		resp := postJSON(t, client, baseURL+"/files/presigned/upload-url",
			`{"filename": "photo.png", "mime_type": "image/png"}`)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var upload cabinet.PresignedUpload
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&upload))
		assert.Contains(t, upload.UploadURL, upload.ObjectKey)
		assert.True(t, strings.HasSuffix(upload.ObjectKey, ".png"))
		assert.Equal(t, cabinet.RootFolder, upload.FolderUUID)

		// The client PUT against the presigned URL, played directly.
		store.putDirect(upload.ObjectKey, []byte("png bytes"))

		callback := fmt.Sprintf(
			`{"object_key": %q, "original_name": "photo.png", "mime_type": "image/png", "size_bytes": 9, "folder_uuid": %q}`,
			upload.ObjectKey, upload.FolderUUID,
		)
		cbResp := postJSON(t, client, baseURL+"/files/presigned/callback", callback)
		defer cbResp.Body.Close()

		require.Equal(t, http.StatusCreated, cbResp.StatusCode)

		var record cabinet.FileRecord
		require.NoError(t, json.NewDecoder(cbResp.Body).Decode(&record))
		assert.Equal(t, upload.ObjectKey, record.ObjectKey)
		assert.Equal(t, cabinet.RootFolder, record.FolderUUID)
	})

	t.Run("presigned download URL", func(t *testing.T) {
		resp, err := client.Get(fmt.Sprintf("%s/files/presigned/download/%d", baseURL, uploaded.ID))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var download cabinet.PresignedDownload
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&download))
		assert.Contains(t, download.URL, uploaded.ObjectKey)
		assert.Equal(t, "report.txt", download.Filename)
	})

	t.Run("list all files newest first", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/files/")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var files []cabinet.FileRecord
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&files))
		require.Len(t, files, 2)
		assert.Greater(t, files[0].ID, files[1].ID)
	})

	t.Run("download of unknown id is 404", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/files/download/999999")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete file removes object and record", func(t *testing.T) {
		before := store.objectCount()

		resp := doDelete(t, client, fmt.Sprintf("%s/files/%d", baseURL, uploaded.ID))
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, before-1, store.objectCount())

		again := doDelete(t, client, fmt.Sprintf("%s/files/%d", baseURL, uploaded.ID))
		defer again.Body.Close()
		assert.Equal(t, http.StatusNotFound, again.StatusCode)
	})

	t.Run("delete folder removes subtree", func(t *testing.T) {
		// Repopulate: one file in the parent, one in the child.
		for _, folder := range []string{parentFolder.UUID, childFolder.UUID} {
			body, contentType := multipartBody(t, "nested.txt", "text/plain", []byte("x"), folder)
			resp, err := client.Post(baseURL+"/files/upload", contentType, body)
			require.NoError(t, err)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			resp.Body.Close()
		}

		resp := doDelete(t, client, baseURL+"/files/folders/"+parentFolder.UUID)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		content := getContent(t, client, baseURL, "")
		assert.Empty(t, content.Folders)

		// Only the presigned-flow object at root survives.
		assert.Equal(t, 1, store.objectCount())
	})

	t.Run("deleting root is rejected", func(t *testing.T) {
		resp := doDelete(t, client, baseURL+"/files/folders/root")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown endpoint is JSON 404", func(t *testing.T) {
		resp, err := client.Get(baseURL + "/nope")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	})
}

func postJSON(t *testing.T, client *http.Client, url, body string) *http.Response {
	t.Helper()
	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func doDelete(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func getContent(t *testing.T, client *http.Client, baseURL, folderUUID string) cabinet.FolderContent {
	t.Helper()

	resp, err := client.Get(baseURL + "/files/content?folder_uuid=" + folderUUID)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var content cabinet.FolderContent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&content))
	return content
}

func multipartBody(t *testing.T, filename, contentType string, content []byte, folderUUID string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)

	if folderUUID != "" {
		require.NoError(t, writer.WriteField("folder_uuid", folderUUID))
	}
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}
