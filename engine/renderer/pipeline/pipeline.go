package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	mu sync.Mutex

	// pipelineKey is the unique identifier for this pipeline, used for labels and lookups
	pipelineKey string

	source           string
	vertexEntry      string
	fragmentEntry    string
	vertexBuffers    []wgpu.VertexBufferLayout
	bindGroupLayouts []*wgpu.BindGroupLayout

	cullMode   wgpu.CullMode
	topology   wgpu.PrimitiveTopology
	frontFace  wgpu.FrontFace
	writeMask  wgpu.ColorWriteMask
	blendState *wgpu.BlendState

	module         *wgpu.ShaderModule
	layout         *wgpu.PipelineLayout
	renderPipeline *wgpu.RenderPipeline
	format         wgpu.TextureFormat
}

// Pipeline is a WGSL render pipeline targeting a single color attachment.
// It is described up front with builder options and created lazily against a
// device and color format, typically on a pass's first Encode.
type Pipeline interface {
	// PipelineKey returns the unique identifier of the pipeline.
	PipelineKey() string

	// Ensure creates the GPU pipeline for format if it does not exist yet.
	// A pipeline created for another format is released and recreated.
	//
	// Parameters:
	//   - device: the device to create the pipeline on
	//   - format: the color attachment format
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the GPU pipeline
	//   - error: error if shader compilation or pipeline creation fails
	Ensure(device *wgpu.Device, format wgpu.TextureFormat) (*wgpu.RenderPipeline, error)

	// RenderPipeline returns the created GPU pipeline, or nil before Ensure.
	RenderPipeline() *wgpu.RenderPipeline

	// Release destroys the GPU objects. The pipeline can be recreated with Ensure.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline describes a render pipeline.
// Defaults: entry points "vs_main" and "fs_main", triangle list, CCW front face,
// no culling, all channels written, no blending.
//
// Parameters:
//   - pipelineKey: the unique identifier for this pipeline
//   - source: the WGSL module holding both entry points
//   - opts: variadic list of PipelineBuilderOption functions
//
// Returns:
//   - Pipeline: the pipeline description
func NewPipeline(pipelineKey, source string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:   pipelineKey,
		source:        source,
		vertexEntry:   "vs_main",
		fragmentEntry: "fs_main",
		cullMode:      wgpu.CullModeNone,
		topology:      wgpu.PrimitiveTopologyTriangleList,
		frontFace:     wgpu.FrontFaceCCW,
		writeMask:     wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderPipeline
}

func (p *pipeline) Ensure(device *wgpu.Device, format wgpu.TextureFormat) (*wgpu.RenderPipeline, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.renderPipeline != nil && p.format == format {
		return p.renderPipeline, nil
	}
	if device == nil {
		return nil, errors.New("pipeline: nil device")
	}
	p.release()

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: p.pipelineKey,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: p.source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s shader: %w", p.pipelineKey, err)
	}
	p.module = module

	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.pipelineKey,
		BindGroupLayouts: p.bindGroupLayouts,
	})
	if err != nil {
		p.release()
		return nil, fmt.Errorf("failed to create %s pipeline layout: %w", p.pipelineKey, err)
	}
	p.layout = layout

	created, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.pipelineKey + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.vertexEntry,
			Buffers:    p.vertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.fragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: p.writeMask,
					Blend:     p.blendState,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.release()
		return nil, fmt.Errorf("failed to create %s render pipeline: %w", p.pipelineKey, err)
	}

	p.renderPipeline = created
	p.format = format
	return created, nil
}

func (p *pipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.release()
}

func (p *pipeline) release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	if p.module != nil {
		p.module.Release()
		p.module = nil
	}
}
