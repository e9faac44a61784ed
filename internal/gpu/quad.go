package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/fullscreen_quad.wgsl
var fullscreenQuadWGSL string

const (
	// quadVertexStride is position (vec2) plus texture coordinate (vec2),
	// four float32 values per vertex.
	quadVertexStride = 16

	// quadIndexCount is two triangles.
	quadIndexCount = 6
)

// QuadRenderer draws a fixed source texture onto render targets as a
// fullscreen quad. One instance owns the pipeline, the quad's vertex and
// index buffers, and the bind group for its source texture.
type QuadRenderer struct {
	device hal.Device
	queue  hal.Queue

	shaderModule    hal.ShaderModule
	bindGroupLayout hal.BindGroupLayout
	pipelineLayout  hal.PipelineLayout
	pipeline        hal.RenderPipeline
	bindGroup       hal.BindGroup
	vertexBuf       hal.Buffer
	indexBuf        hal.Buffer

	// targetFormat is baked into the pipeline's fragment state; render
	// targets must match it.
	targetFormat gputypes.TextureFormat
}

// NewQuadRenderer builds the fullscreen quad pipeline for a source texture
// and a render target format.
func NewQuadRenderer(device hal.Device, queue hal.Queue, src *Texture, targetFormat gputypes.TextureFormat) (*QuadRenderer, error) {
	q := &QuadRenderer{device: device, queue: queue, targetFormat: targetFormat}

	var err error
	q.shaderModule, err = createShaderModule(device, "quad_shader", fullscreenQuadWGSL)
	if err != nil {
		return nil, fmt.Errorf("quad shader: %w", err)
	}

	q.bindGroupLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "quad_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		q.Destroy()
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}

	q.pipelineLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "quad_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{q.bindGroupLayout},
	})
	if err != nil {
		q.Destroy()
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	q.pipeline, err = device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "quad_pipeline",
		Layout: q.pipelineLayout,
		Vertex: hal.VertexState{
			Module:     q.shaderModule,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{{
				ArrayStride: quadVertexStride,
				StepMode:    gputypes.VertexStepModeVertex,
				Attributes: []gputypes.VertexAttribute{
					{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
				},
			}},
		},
		Fragment: &hal.FragmentState{
			Module:     q.shaderModule,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    targetFormat,
				Blend:     &premulBlend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		q.Destroy()
		return nil, fmt.Errorf("create render pipeline: %w", err)
	}

	q.bindGroup, err = device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "quad_bind",
		Layout: q.bindGroupLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{
				TextureView: src.view.NativeHandle(),
			}},
		},
	})
	if err != nil {
		q.Destroy()
		return nil, fmt.Errorf("create bind group: %w", err)
	}

	q.vertexBuf, err = q.createAndUploadBuffer("quad_verts", quadVertexData(),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		q.Destroy()
		return nil, err
	}
	q.indexBuf, err = q.createAndUploadBuffer("quad_indices", quadIndexData(),
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		q.Destroy()
		return nil, err
	}

	slogger().Debug("quad renderer ready", "targetFormat", uint32(targetFormat))
	return q, nil
}

// RenderFrame draws the source texture over the whole target, clearing it
// first, and blocks until the GPU finishes the frame.
func (q *QuadRenderer) RenderFrame(target *Texture, clear gputypes.Color) error {
	if target.format != q.targetFormat {
		return fmt.Errorf("target format %v does not match pipeline format %v",
			target.format, q.targetFormat)
	}

	encoder, err := q.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "quad_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("quad_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "quad_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: clear,
		}},
	})
	rp.SetPipeline(q.pipeline)
	rp.SetBindGroup(0, q.bindGroup, nil)
	rp.SetVertexBuffer(0, q.vertexBuf, 0)
	rp.SetIndexBuffer(q.indexBuf, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(quadIndexCount, 1, 0, 0, 0)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer q.device.FreeCommandBuffer(cmdBuf)

	fence, err := q.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer q.device.DestroyFence(fence)

	if err := q.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := q.device.Wait(fence, 1, gpuWaitTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// Destroy releases all GPU resources owned by the renderer.
func (q *QuadRenderer) Destroy() {
	if q.indexBuf != nil {
		q.device.DestroyBuffer(q.indexBuf)
		q.indexBuf = nil
	}
	if q.vertexBuf != nil {
		q.device.DestroyBuffer(q.vertexBuf)
		q.vertexBuf = nil
	}
	if q.bindGroup != nil {
		q.device.DestroyBindGroup(q.bindGroup)
		q.bindGroup = nil
	}
	if q.pipeline != nil {
		q.device.DestroyRenderPipeline(q.pipeline)
		q.pipeline = nil
	}
	if q.pipelineLayout != nil {
		q.device.DestroyPipelineLayout(q.pipelineLayout)
		q.pipelineLayout = nil
	}
	if q.bindGroupLayout != nil {
		q.device.DestroyBindGroupLayout(q.bindGroupLayout)
		q.bindGroupLayout = nil
	}
	if q.shaderModule != nil {
		q.device.DestroyShaderModule(q.shaderModule)
		q.shaderModule = nil
	}
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (q *QuadRenderer) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := q.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	q.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// quadVertexData builds the quad's vertex bytes: four vertices of clip
// space position and texture coordinate. v=0 is the texture's top row, so
// the top of clip space (y=+1) maps to it.
func quadVertexData() []byte {
	verts := []float32{
		// x, y, u, v
		-1, 1, 0, 0,
		1, 1, 1, 0,
		1, -1, 1, 1,
		-1, -1, 0, 1,
	}
	data := make([]byte, len(verts)*4)
	for i, v := range verts {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return data
}

// quadIndexData builds the two-triangle index list for the quad.
func quadIndexData() []byte {
	idx := []uint16{0, 1, 2, 2, 3, 0}
	data := make([]byte, len(idx)*2)
	for i, v := range idx {
		binary.LittleEndian.PutUint16(data[i*2:], v)
	}
	return data
}
