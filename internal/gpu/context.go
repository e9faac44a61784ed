package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Registers the Vulkan backend with the HAL.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// halProvider is the device-sharing contract a host application's context
// satisfies to lend framecap its HAL device and queue. Checked with a local
// interface assertion so no dependency on the host package is needed.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// Context owns the HAL instance, device, and queue used for rendering and
// readback. Create one with NewContext for a standalone device, or with
// NewContextFromProvider to share a host application's device.
type Context struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// external marks a device borrowed from a host application.
	// Close must not destroy what the host still owns.
	external bool
}

// NewContext creates an instance, picks an adapter, and opens a device on
// it. Discrete GPUs are preferred, then integrated, then whatever the
// backend enumerates first.
func NewContext() (*Context, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	slogger().Info("gpu adapter selected", "name", selected.Info.Name)
	return &Context{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
	}, nil
}

// NewContextFromProvider wraps a device and queue borrowed from a host
// application (anything exposing HalDevice/HalQueue, such as a
// gogpu.Context). The host keeps ownership; Close releases nothing.
func NewContextFromProvider(provider any) (*Context, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("provider %T does not expose a HAL device", provider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("provider returned no usable HAL device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("provider returned no usable HAL queue")
	}
	slogger().Debug("using shared GPU device from host provider")
	return &Context{device: device, queue: queue, external: true}, nil
}

// Device returns the HAL device.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the HAL queue.
func (c *Context) Queue() hal.Queue { return c.queue }

// Close destroys the device and instance for standalone contexts. For
// contexts created from a provider the host owns both and Close is a no-op.
func (c *Context) Close() {
	if c.external {
		return
	}
	if c.device != nil {
		c.device.Destroy()
		c.device = nil
	}
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}
	c.queue = nil
}
