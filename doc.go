/*
go-zonetrack measures how long tracked objects have resided inside
polygonal zones of a video frame.  It consumes per frame batches of
tracked objects produced by an object detector and multi-object tracker
and computes per zone, per object dwell times suitable for overlay
rendering or export.

The core is frame synchronous and single threaded.  Detection and
tracking collaborators feed the Engine one frame at a time in frame
order, all I/O happens outside the core in the driver loop.

See example code and usage in the example subdirectory.
*/
package zonetrack
