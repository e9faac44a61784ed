// Package gpu implements the HAL-backed half of framecap: device and queue
// acquisition, texture creation and upload, fullscreen quad rendering, and
// asynchronous texture readback into host-owned pixel buffers.
package gpu
