package bridge

import (
	"context"

	"ortbridge/internal/engine"
	"ortbridge/internal/valueconv"
	"ortbridge/pkg/types"
)

func (p *Plugin) createOrtValue(ctx context.Context, args Args) (any, error) {
	typeName, err := args.String("sourceType")
	if err != nil {
		return nil, err
	}
	t, err := valueconv.ParseElementType(typeName)
	if err != nil {
		return nil, err
	}
	if !args.Has("data") {
		return nil, missingArg("data")
	}
	if !args.Has("shape") {
		return nil, missingArg("shape")
	}
	shape, err := args.Int64List("shape")
	if err != nil {
		return nil, err
	}
	data, err := valueconv.DecodeData(t, args["data"])
	if err != nil {
		return nil, err
	}
	e, err := p.tensors.Create(engine.Buffer{Type: t, Shape: engine.Shape(shape), Data: data})
	if err != nil {
		return nil, err
	}
	p.log.Debug().Str("value_id", e.ID).Str("type", t.String()).Ints64("shape", shape).Msg("value created")
	return e.Info(), nil
}

// valueID reads the valueId argument; null or empty is INVALID_ORT_VALUE.
func valueID(args Args) (string, error) {
	id, err := args.String("valueId")
	if isMissingArg(err) || (err == nil && id == "") {
		return "", newError(CodeInvalidOrtValue, "value ID cannot be null")
	}
	return id, err
}

func (p *Plugin) convertOrtValue(ctx context.Context, args Args) (any, error) {
	id, err := valueID(args)
	if err != nil {
		return nil, err
	}
	typeName, err := args.String("targetType")
	if err != nil {
		return nil, err
	}
	t, err := valueconv.ParseElementType(typeName)
	if err != nil {
		return nil, err
	}
	e, err := p.tensors.Convert(id, t)
	if err != nil {
		return nil, err
	}
	return e.Info(), nil
}

func (p *Plugin) moveOrtValueToDevice(ctx context.Context, args Args) (any, error) {
	id, err := valueID(args)
	if err != nil {
		return nil, err
	}
	device, err := args.OptString("targetDevice", engine.DeviceCPU)
	if err != nil {
		return nil, err
	}
	e, err := p.tensors.MoveToDevice(id, device)
	if err != nil {
		return nil, err
	}
	return e.Info(), nil
}

func (p *Plugin) getOrtValueData(ctx context.Context, args Args) (any, error) {
	id, err := valueID(args)
	if err != nil {
		return nil, err
	}
	encName, err := args.OptString("encoding", string(valueconv.EncodingList))
	if err != nil {
		return nil, err
	}
	enc, err := valueconv.ParseEncoding(encName)
	if err != nil {
		return nil, err
	}
	buf, err := p.tensors.Data(id)
	if err != nil {
		return nil, err
	}
	data, err := valueconv.Encode(buf, enc)
	if err != nil {
		return nil, err
	}
	return types.ValueData{
		Data:     data,
		Shape:    []int64(buf.Shape.Clone()),
		DataType: buf.Type.String(),
		Encoding: string(enc),
	}, nil
}

func (p *Plugin) releaseOrtValue(ctx context.Context, args Args) (any, error) {
	id, err := valueID(args)
	if err != nil {
		return nil, err
	}
	released, err := p.tensors.Release(id)
	if err != nil {
		return nil, err
	}
	if released {
		p.log.Debug().Str("value_id", id).Msg("value released")
	}
	return nil, nil
}
