// Package mergetest runs an in-memory stand-in for a MergeBox server so the SDK,
// the controller and the CLI can be tested end to end over real HTTP.
package mergetest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionCookie = "session"
	PDFHeader     = "%PDF-1.4\n"
)

// StoredFile is a file held by the fake server
type StoredFile struct {
	ID          string
	Name        string
	ContentType string
	Data        []byte
}

// Failure is a canned response returned instead of the normal handler result
type Failure struct {
	Status      int
	Body        string
	ContentType string
}

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	sessions    map[string][]StoredFile
	lastSession string
	failures    map[string][]Failure
	holds       map[string]chan struct{}
	requests    []*http.Request
	merges      int
}

// New starts a fake server. It is closed when the test ends.
func New(t interface{ Cleanup(func()) }) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		sessions: make(map[string][]StoredFile),
		failures: make(map[string][]Failure),
		holds:    make(map[string]chan struct{}),
	}

	r := gin.New()
	r.Use(s.record, s.session, s.hold, s.inject)
	r.POST("/upload", s.handleUpload)
	r.POST("/remove/:fileId", s.handleRemove)
	r.POST("/clear", s.handleClear)
	r.POST("/merge", s.handleMerge)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// FailNext queues a canned response for the next request to path (`/upload`,
// `/remove`, `/clear`, `/merge`). Queued failures are served in order.
func (s *Server) FailNext(path string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ContentType == "" {
		f.ContentType = "application/json"
	}
	s.failures[path] = append(s.failures[path], f)
}

// FailJSON queues a `{"error": message}` response with status
func (s *Server) FailJSON(path string, status int, message string) {
	s.FailNext(path, Failure{Status: status, Body: fmt.Sprintf(`{"error": %q}`, message)})
}

// Hold blocks requests to path until the returned release func is called
func (s *Server) Hold(path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[path] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.holds, path)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Files returns the files of the most recently active session
func (s *Server) Files() []StoredFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StoredFile(nil), s.sessions[s.lastSession]...)
}

// Seed adds a file to the most recently active session
func (s *Server) Seed(name string, data []byte) StoredFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := StoredFile{ID: uuid.NewString(), Name: name, ContentType: "application/pdf", Data: data}
	s.sessions[s.lastSession] = append(s.sessions[s.lastSession], f)
	return f
}

// Requests returns every request seen so far, in arrival order
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

// Merges counts successful merges
func (s *Server) Merges() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merges
}

// MergedBody is what the fake server returns for a merge of files
func MergedBody(files []StoredFile) []byte {
	var b bytes.Buffer
	b.WriteString(PDFHeader)
	for _, f := range files {
		fmt.Fprintf(&b, "%% %s\n", f.Name)
		b.Write(f.Data)
		b.WriteString("\n")
	}
	b.WriteString("%%EOF\n")
	return b.Bytes()
}

// --- middleware ---

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.requests = append(s.requests, c.Request.Clone(c.Request.Context()))
	s.mu.Unlock()
	c.Next()
}

func (s *Server) session(c *gin.Context) {
	id, err := c.Cookie(SessionCookie)
	if err != nil || id == "" {
		id = uuid.NewString()
		c.SetCookie(SessionCookie, id, 0, "/", "", false, true)
	}

	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.sessions[id] = nil
	}
	s.lastSession = id
	s.mu.Unlock()

	c.Set(SessionCookie, id)
	c.Next()
}

func (s *Server) hold(c *gin.Context) {
	s.mu.Lock()
	ch, ok := s.holds[routeKey(c.Request.URL.Path)]
	s.mu.Unlock()

	if ok {
		select {
		case <-ch:
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	key := routeKey(c.Request.URL.Path)

	s.mu.Lock()
	queue := s.failures[key]
	var f *Failure
	if len(queue) > 0 {
		f = &queue[0]
		s.failures[key] = queue[1:]
	}
	s.mu.Unlock()

	if f != nil {
		c.Data(f.Status, f.ContentType, []byte(f.Body))
		c.Abort()
		return
	}
	c.Next()
}

func routeKey(path string) string {
	if strings.HasPrefix(path, "/remove/") {
		return "/remove"
	}
	return path
}

// --- handlers ---

func (s *Server) handleUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files[]"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files selected"})
		return
	}

	var uploaded []StoredFile
	for _, fh := range form.File["files[]"] {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are allowed"})
			return
		}

		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while uploading files. Please try again later."})
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while uploading files. Please try again later."})
			return
		}

		uploaded = append(uploaded, StoredFile{
			ID:          uuid.NewString(),
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	records := make([]gin.H, 0, len(uploaded))
	for _, f := range uploaded {
		records = append(records, gin.H{"id": f.ID, "name": f.Name})
	}

	session := c.GetString(SessionCookie)
	s.mu.Lock()
	s.sessions[session] = append(s.sessions[session], uploaded...)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"message": "Files uploaded successfully", "files": records})
}

func (s *Server) handleRemove(c *gin.Context) {
	session := c.GetString(SessionCookie)
	id := c.Param("fileId")

	s.mu.Lock()
	defer s.mu.Unlock()

	files := s.sessions[session]
	for i, f := range files {
		if f.ID == id {
			s.sessions[session] = append(files[:i:i], files[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"message": "File removed successfully"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
}

func (s *Server) handleClear(c *gin.Context) {
	session := c.GetString(SessionCookie)

	s.mu.Lock()
	s.sessions[session] = nil
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"message": "All files cleared successfully"})
}

func (s *Server) handleMerge(c *gin.Context) {
	session := c.GetString(SessionCookie)

	s.mu.Lock()
	files := s.sessions[session]
	if len(files) == 0 {
		s.mu.Unlock()
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files to merge"})
		return
	}
	s.sessions[session] = nil
	s.merges++
	s.mu.Unlock()

	c.Header("Content-Disposition", `attachment; filename="merged.pdf"`)
	c.Data(http.StatusOK, "application/pdf", MergedBody(files))
}
