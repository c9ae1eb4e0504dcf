package server

import (
	"fmt"
	"image"
	"image/draw"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tomgalvin.uk/thermalprint/internal/bitmap"
	"tomgalvin.uk/thermalprint/internal/printer"
	"tomgalvin.uk/thermalprint/internal/render"
)

const (
	// Longest page accepted in one request, about 1.2m of paper
	maxPageHeight = 10000
	maxImageBytes = 8 << 20
	maxJobsListed = 100
	summaryLength = 40
)

func summarise(s string) string {
	r := []rune(s)
	if len(r) > summaryLength {
		return string(r[:summaryLength-3]) + "..."
	}
	return string(r)
}

func (s *Server) getStatus(c *gin.Context) {
	st := s.host.Status()
	res := mapStatusToJson(&st)
	if s.journal != nil {
		if count, _, err := s.journal.Totals(); err == nil {
			res.JobsRecorded = &count
		}
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) listJobs(c *gin.Context) {
	if s.journal == nil {
		c.JSON(http.StatusOK, []JobResponse{})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
		return
	}

	jobs, err := s.journal.Recent(min(limit, maxJobsListed))
	if err != nil {
		s.log.Error("Couldn't list jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "couldn't list jobs"})
		return
	}
	res := make([]JobResponse, len(jobs))
	for i := range jobs {
		res[i] = mapJobToJson(&jobs[i])
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getJob(c *gin.Context) {
	u, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}
	if s.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no journal"})
		return
	}
	j, err := s.journal.Get(u)
	if err != nil {
		s.log.Error("Couldn't fetch job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "couldn't fetch job"})
		return
	}
	if j == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, mapJobToJson(j))
}

func (s *Server) printText(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	s.run(c, "text", summarise(req.Text), func(p *printer.Printer) error {
		req.apply(p)
		p.Println(req.Text)
		if req.Feed > 0 {
			p.Feed(req.Feed)
		}
		req.restore(p)
		return nil
	})
}

func (s *Server) feed(c *gin.Context) {
	var req FeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Lines == 0 && req.Rows == 0 {
		req.Lines = 1
	}

	s.run(c, "feed", fmt.Sprintf("%d lines %d rows", req.Lines, req.Rows), func(p *printer.Printer) error {
		if req.Lines > 0 {
			p.Feed(req.Lines)
		}
		if req.Rows > 0 {
			p.FeedRows(req.Rows)
		}
		return nil
	})
}

// readImage takes an image from an "image" multipart field, or failing that
// from the raw request body.
func readImage(c *gin.Context) (image.Image, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes)
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return render.Decode(f)
	}
	return render.Decode(c.Request.Body)
}

func (s *Server) printImage(c *gin.Context) {
	img, err := readImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	gamma, err := strconv.ParseFloat(c.DefaultQuery("gamma", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gamma must be a number"})
		return
	}

	b := img.Bounds()
	s.run(c, "image", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()), func(p *printer.Printer) error {
		height := render.FitHeight(img, p.Width())
		if err := preparePage(p, height); err != nil {
			return err
		}
		render.Image(p.Canvas(), img, gamma)
		p.EmitRaster()
		return nil
	})
}

func (s *Server) printBitmap(c *gin.Context) {
	var req BitmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pixels, err := bitmap.PixelBitmapFromData(req.Width, req.Height, req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	packed := bitmap.PackBitmap(pixels)

	s.run(c, "bitmap", pixels.String(), func(p *printer.Printer) error {
		if packed.Width() > p.Width() {
			return badRequest("bitmap is %d dots wide, the page is %d", packed.Width(), p.Width())
		}
		if err := preparePage(p, packed.Height()); err != nil {
			return err
		}
		draw.Draw(p.Canvas(), packed.Bounds(), packed, image.Point{}, draw.Src)
		p.EmitRaster()
		return nil
	})
}

func (s *Server) printLabel(c *gin.Context) {
	var req LabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Size <= 0 {
		req.Size = 32
	}
	face, err := render.LoadFace(req.Font, req.Size)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer face.Close()

	s.run(c, "label", summarise(req.Text), func(p *printer.Printer) error {
		bounds := image.Rect(0, 0, p.Width(), maxPageHeight)
		m, _ := render.MeasureText(bounds, req.Text, face, image.Point{})
		if m.OutOfBounds || m.Height == 0 {
			return badRequest("label doesn't fit on a page")
		}
		if err := preparePage(p, m.Height); err != nil {
			return err
		}
		render.Text(p.Canvas(), req.Text, face, image.Point{})
		p.EmitRaster()
		return nil
	})
}

func (s *Server) testPage(c *gin.Context) {
	s.run(c, "testpage", "", func(p *printer.Printer) error {
		p.TestPage()
		return nil
	})
}

// preparePage sizes and blanks the page for a new image.
func preparePage(p *printer.Printer, height int) error {
	if height <= 0 || height > maxPageHeight {
		return badRequest("page height %d out of range", height)
	}
	if err := p.SetHeight(height); err != nil {
		return badRequest("%v", err)
	}
	return nil
}
