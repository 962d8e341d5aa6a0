/*
Example demonstrating time in zone measurement on a video stream.

Zones are loaded from a JSON configuration file, objects are detected
with a YOLOv5 ONNX model, tracked across frames, and the annotated
video showing per zone dwell times is streamed as MJPEG over HTTP.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/swdee/go-zonetrack"
	"github.com/swdee/go-zonetrack/render"
	"github.com/swdee/go-zonetrack/store"
	"github.com/swdee/go-zonetrack/tracker"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Demo runs the time in zone frame loop and serves the annotated
// video stream
type Demo struct {
	detector *Detector
	track    *tracker.SortTracker
	trail    *tracker.Trail
	engine   *zonetrack.Engine
	// labels are the class names the detection model was trained on
	labels []string
	// limitClasses restricts tracking to these class IDs, empty means
	// no restriction
	limitClasses map[int]bool
	fpsMon       *zonetrack.FPSMonitor
	// db is the optional dwell event store
	db  *store.DB
	log *zap.Logger

	font       render.Font
	trailStyle render.TrailStyle
	// ttf renders the FPS overlay when a TTF font file was supplied,
	// nil falls back to the Hershey font
	ttf *render.TTFText

	// latest holds the most recent annotated frame as JPEG for the
	// MJPEG stream handler
	mu     sync.Mutex
	latest []byte
}

// LimitObjects limits tracking to the given comma delimited list of
// class labels, eg: "person" or "car,truck"
func (d *Demo) LimitObjects(lim string) {

	d.limitClasses = make(map[int]bool)

	for _, word := range strings.Split(lim, ",") {

		trimmed := strings.TrimSpace(word)

		// check if word is an actual label in our labels file
		for i, label := range d.labels {
			if label == trimmed {
				d.limitClasses[i] = true
			}
		}
	}

	d.log.Info("limiting tracked classes", zap.String("classes", lim))
}

// ProcessFrame runs detection, tracking, and the zone dwell update for
// one frame and stores the annotated result for streaming
func (d *Demo) ProcessFrame(img gocv.Mat, frameNum int64) error {

	d.fpsMon.Tick()

	objects, err := d.detector.Detect(img)

	if err != nil {
		return fmt.Errorf("error detecting objects: %w", err)
	}

	// exclude objects detected that are not a given class/label
	if len(d.limitClasses) > 0 {

		keep := objects[:0]

		for _, obj := range objects {
			if d.limitClasses[obj.Label] {
				keep = append(keep, obj)
			}
		}

		objects = keep
	}

	tracks, err := d.track.Update(objects)

	if err != nil {
		return fmt.Errorf("error updating tracker: %w", err)
	}

	// convert tracker output to the engine input format
	trackedObjs := make([]zonetrack.TrackedObject, len(tracks))

	for i, track := range tracks {

		d.trail.Add(track)

		rect := track.GetRect()

		trackedObjs[i] = zonetrack.TrackedObject{
			TrackID: track.GetTrackID(),
			Class:   track.GetLabel(),
			Box: zonetrack.BoxRect{
				Left:   int(rect.TLX()),
				Top:    int(rect.TLY()),
				Right:  int(rect.BRX()),
				Bottom: int(rect.BRY()),
			},
			Probability: track.GetScore(),
		}
	}

	results, err := d.engine.Update(trackedObjs, time.Now())

	if err != nil {
		return fmt.Errorf("error updating engine: %w", err)
	}

	// copy the source image and annotate the copy
	resImg := gocv.NewMat()
	defer resImg.Close()
	img.CopyTo(&resImg)

	render.Zones(&resImg, d.engine.Zones(), d.font, 2)
	render.Trail(&resImg, tracks, d.trail, d.trailStyle)

	for _, zr := range results {
		render.DwellBoxes(&resImg, zr.Objects, d.labels, d.font, 2)
	}

	// add FPS to top of image
	fpsText := fmt.Sprintf("FPS: %.2f", d.fpsMon.FPS())

	if d.ttf != nil {
		if err := d.ttf.Put(&resImg, fpsText, 4, 14, render.Red); err != nil {
			d.log.Warn("failed to render FPS text", zap.Error(err))
		}
	} else {
		gocv.PutText(&resImg, fpsText, image.Pt(4, 14),
			gocv.FontHersheyDuplex, 0.5, render.Red, 1)
	}

	// record dwell observations once per second of video
	if d.db != nil && frameNum%30 == 0 {
		d.recordDwell(results, frameNum)
	}

	// Encode the image to JPEG format for the stream
	buf, err := gocv.IMEncode(".jpg", resImg)

	if err != nil {
		return fmt.Errorf("error encoding frame: %w", err)
	}

	d.mu.Lock()
	d.latest = append(d.latest[:0], buf.GetBytes()...)
	d.mu.Unlock()

	buf.Close()

	return nil
}

// recordDwell writes the current dwell times to the event store
func (d *Demo) recordDwell(results []zonetrack.ZoneResult, frameNum int64) {

	now := time.Now()

	for zi, zr := range results {
		for _, obj := range zr.Objects {

			err := d.db.RecordDwell(zi, obj.TrackID, obj.Class,
				obj.ElapsedSeconds, frameNum, now)

			if err != nil {
				d.log.Warn("failed to record dwell event", zap.Error(err))
			}
		}
	}
}

// Stream is the HTTP handler function used to stream video frames to
// the browser
func (d *Demo) Stream(w http.ResponseWriter, r *http.Request) {

	d.log.Info("new client connection established")

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

	ticker := time.NewTicker(time.Second / 30)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			d.log.Info("client disconnected")
			return

		case <-ticker.C:

			d.mu.Lock()
			frame := append([]byte(nil), d.latest...)
			d.mu.Unlock()

			if len(frame) == 0 {
				continue
			}

			// Write the image to the response writer
			w.Write([]byte("--frame\r\n"))
			w.Write([]byte("Content-Type: image/jpeg\r\n\r\n"))
			w.Write(frame)
			w.Write([]byte("\r\n"))

			// Flush the buffer
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

func main() {

	// read in cli flags
	zoneFile := flag.String("z", "zones.json", "Zone configuration JSON file")
	vidFile := flag.String("v", "", "Video file to process, camera is used when empty")
	camIndex := flag.Int("c", 0, "Index of the camera to use")
	modelFile := flag.String("m", "yolov5s.onnx", "YOLOv5 ONNX model file")
	labelFile := flag.String("l", "coco_80_labels_list.txt", "Text file containing model labels")
	httpAddr := flag.String("a", "localhost:8080", "HTTP Address to run server on, format address:port")
	limitLabels := flag.String("x", "", "Comma delimited list of labels to restrict tracking to")
	dbFile := flag.String("d", "", "SQLite file to record dwell events to, disabled when empty")
	fontFile := flag.String("f", "", "TTF font file used for the FPS overlay, Hershey font is used when empty")
	confThresh := flag.Float64("conf", 0.3, "Confidence threshold for the model")
	nmsThresh := flag.Float64("nms", 0.7, "IoU threshold for non maximum suppression")
	evict := flag.Duration("evict", 0, "Drop dwell state for IDs absent longer than this duration, 0 keeps state forever")

	flag.Parse()

	logger, err := zap.NewDevelopment()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating logger: %v\n", err)
		os.Exit(1)
	}

	defer logger.Sync()

	// stop the frame loop between frames on interrupt
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *zoneFile, *vidFile, *camIndex, *modelFile,
		*labelFile, *httpAddr, *limitLabels, *dbFile, *fontFile,
		float32(*confThresh), float32(*nmsThresh), *evict); err != nil {

		logger.Fatal("demo failed", zap.Error(err))
	}
}

// run wires up the pipeline and drives the frame loop until the context
// is cancelled or the video ends
func run(ctx context.Context, logger *zap.Logger, zoneFile, vidFile string,
	camIndex int, modelFile, labelFile, httpAddr, limitLabels,
	dbFile, fontFile string, confThresh, nmsThresh float32,
	evict time.Duration) error {

	// open handle to video source, the frame loop owns it exclusively
	var video *gocv.VideoCapture
	var err error

	if vidFile != "" {
		video, err = gocv.VideoCaptureFile(vidFile)
	} else {
		video, err = gocv.VideoCaptureDevice(camIndex)
	}

	if err != nil {
		return fmt.Errorf("error opening video source: %w", err)
	}

	defer video.Close()

	// read first frame to get the source resolution
	img := gocv.NewMat()
	defer img.Close()

	if ok := video.Read(&img); !ok || img.Empty() {
		return fmt.Errorf("error reading first frame from video source")
	}

	resolution := image.Pt(img.Cols(), img.Rows())
	logger.Info("video source open",
		zap.Int("width", resolution.X), zap.Int("height", resolution.Y))

	// build zones from configuration, order in the file defines result
	// ordering and render z-order
	polygons, err := zonetrack.LoadZonesConfig(zoneFile)

	if err != nil {
		return fmt.Errorf("error loading zone configuration: %w", err)
	}

	zones := make([]*zonetrack.Zone, len(polygons))

	for i, polygon := range polygons {

		zones[i], err = zonetrack.NewZone(polygon, resolution,
			zonetrack.AnchorBottomCenter)

		if err != nil {
			return fmt.Errorf("error creating zone %d: %w", i, err)
		}
	}

	// warn on overlapping zones, often a configuration mistake
	for i := 0; i < len(zones); i++ {
		for j := i + 1; j < len(zones); j++ {
			if zones[i].Overlaps(zones[j]) {
				logger.Warn("zones overlap",
					zap.Int("zone", i), zap.Int("other", j))
			}
		}
	}

	engine, err := zonetrack.NewEngine(zones)

	if err != nil {
		return fmt.Errorf("error creating engine: %w", err)
	}

	// opt in to bounded dwell state, off by default as it changes the
	// time since first seen semantics for long absent IDs
	if evict > 0 {

		for i := range zones {
			engine.Timer(i).EvictAfter(evict)
		}

		logger.Info("dwell state eviction enabled",
			zap.Duration("after", evict))
	}

	// load in Model class names
	labels, err := zonetrack.LoadLabels(labelFile)

	if err != nil {
		return fmt.Errorf("error loading model labels: %w", err)
	}

	detector, err := NewDetector(modelFile, confThresh, nmsThresh)

	if err != nil {
		return fmt.Errorf("error creating detector: %w", err)
	}

	defer detector.Close()

	demo := &Demo{
		detector:   detector,
		track:      tracker.NewSortTracker(30, 30, 0.3, confThresh),
		trail:      tracker.NewTrail(90),
		engine:     engine,
		labels:     labels,
		fpsMon:     zonetrack.NewFPSMonitor(time.Second),
		log:        logger,
		font:       render.DefaultFont(),
		trailStyle: render.DefaultTrailStyle(),
	}

	if limitLabels != "" {
		demo.LimitObjects(limitLabels)
	}

	if fontFile != "" {

		demo.ttf, err = render.NewTTFText(fontFile, 12)

		if err != nil {
			return fmt.Errorf("error loading TTF font: %w", err)
		}
	}

	if dbFile != "" {

		demo.db, err = store.Open(dbFile)

		if err != nil {
			return fmt.Errorf("error opening dwell event store: %w", err)
		}

		defer demo.db.Close()
	}

	// serve the annotated MJPEG stream
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", demo.Stream)

	server := &http.Server{Addr: httpAddr, Handler: mux}

	go func() {
		logger.Info("open browser and view video",
			zap.String("url", fmt.Sprintf("http://%s/stream", httpAddr)))

		if err := server.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error("http server failed", zap.Error(err))
		}
	}()

	// frame loop, one frame fully processed before the next is pulled
	var frameNum int64

	for ctx.Err() == nil {

		if ok := video.Read(&img); !ok {
			// reached last video frame
			logger.Info("end of video")
			break
		}

		if img.Empty() {
			continue
		}

		frameNum++

		if err := demo.ProcessFrame(img, frameNum); err != nil {
			logger.Error("error processing frame",
				zap.Int64("frame", frameNum), zap.Error(err))
		}
	}

	shutCtx, cancel := context.WithTimeout(context.Background(),
		2*time.Second)
	defer cancel()
	server.Shutdown(shutCtx)

	// report per zone dwell totals collected during the run
	if demo.db != nil {

		totals, err := demo.db.ZoneTotals()

		if err != nil {
			return fmt.Errorf("error reading zone totals: %w", err)
		}

		for _, t := range totals {
			logger.Info("zone dwell summary",
				zap.Int("zone", t.Zone),
				zap.Int("tracks", t.Tracks),
				zap.Float64("total_seconds", t.TotalSeconds),
				zap.Float64("max_seconds", t.MaxSeconds))
		}
	}

	return nil
}
