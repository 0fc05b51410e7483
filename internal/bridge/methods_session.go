package bridge

import (
	"context"
	"strings"

	"ortbridge/internal/engine"
	"ortbridge/internal/registry"
	"ortbridge/pkg/types"
)

func (p *Plugin) getPlatformVersion(ctx context.Context, args Args) (any, error) {
	return platformVersion(), nil
}

func (p *Plugin) getAvailableProviders(ctx context.Context, args Args) (any, error) {
	return p.eng.Providers(), nil
}

func (p *Plugin) listModels(ctx context.Context, args Args) (any, error) {
	models := p.models.List()
	if models == nil {
		models = []types.Model{}
	}
	return models, nil
}

func (p *Plugin) createSession(ctx context.Context, args Args) (any, error) {
	ref, err := args.String("modelPath")
	if isMissingArg(err) || (err == nil && strings.TrimSpace(ref) == "") {
		return nil, newError(CodeNullModelPath, "model path cannot be null")
	}
	if err != nil {
		return nil, err
	}
	path, err := p.models.Resolve(ref)
	if err != nil {
		return nil, err
	}
	raw, err := args.Map("sessionOptions")
	if err != nil {
		return nil, err
	}
	opts, err := parseSessionOptions(raw)
	if err != nil {
		return nil, err
	}
	e, err := p.sessions.Create(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	p.log.Info().Str("session_id", e.ID).Str("model_path", path).Msg("session created")
	return types.SessionInfo{SessionID: e.ID, InputNames: e.InputNames(), OutputNames: e.OutputNames()}, nil
}

var graphOptLevels = map[string]bool{"": true, "disable_all": true, "basic": true, "extended": true, "all": true}

func parseSessionOptions(a Args) (engine.SessionOptions, error) {
	var (
		opts engine.SessionOptions
		err  error
	)
	if a == nil {
		return opts, nil
	}
	if opts.IntraOpNumThreads, err = a.Int("intraOpNumThreads", 0); err != nil {
		return opts, err
	}
	if opts.InterOpNumThreads, err = a.Int("interOpNumThreads", 0); err != nil {
		return opts, err
	}
	if opts.IntraOpNumThreads < 0 || opts.InterOpNumThreads < 0 {
		return opts, badArg("sessionOptions", "thread counts must not be negative")
	}
	level, err := a.OptString("graphOptimizationLevel", "")
	if err != nil {
		return opts, err
	}
	opts.GraphOptimizationLevel = strings.ToLower(level)
	if !graphOptLevels[opts.GraphOptimizationLevel] {
		return opts, badArg("graphOptimizationLevel", "unknown level %q", level)
	}
	if opts.Providers, err = a.StringList("providers"); err != nil {
		return opts, err
	}
	if opts.DeviceID, err = a.Int("deviceId", 0); err != nil {
		return opts, err
	}
	if opts.EnableCPUMemArena, err = a.OptBool("enableCpuMemArena"); err != nil {
		return opts, err
	}
	if opts.EnableMemPattern, err = a.OptBool("enableMemPattern"); err != nil {
		return opts, err
	}
	return opts, nil
}

// sessionID reads the sessionId argument; null or empty is INVALID_SESSION.
func sessionID(args Args) (string, error) {
	id, err := args.String("sessionId")
	if isMissingArg(err) || (err == nil && id == "") {
		return "", newError(CodeInvalidSession, "session ID cannot be null")
	}
	return id, err
}

func (p *Plugin) runInference(ctx context.Context, args Args) (any, error) {
	id, err := sessionID(args)
	if err != nil {
		return nil, err
	}
	inputs, err := args.Map("inputs")
	if err != nil {
		return nil, err
	}
	if inputs == nil {
		return nil, newError(CodeNullInputs, "inputs cannot be null")
	}
	rawOpts, err := args.Map("runOptions")
	if err != nil {
		return nil, err
	}
	opts, err := parseRunOptions(rawOpts)
	if err != nil {
		return nil, err
	}
	outputNames, err := args.StringList("outputNames")
	if err != nil {
		return nil, err
	}

	e, release, err := p.sessions.BeginRun(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()
	if opts.Terminate {
		return nil, newError(CodeRunTerminated, "run terminated by run options")
	}

	known := make(map[string]bool)
	for _, n := range e.InputNames() {
		known[n] = true
	}
	names := make([]string, 0, len(inputs))
	ids := make([]string, 0, len(inputs))
	for name := range inputs {
		if !known[name] {
			return nil, badArg("inputs", "unknown input %q", name)
		}
		vid, err := inputValueID(inputs, name)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		ids = append(ids, vid)
	}
	for _, n := range e.InputNames() {
		if _, ok := inputs[n]; !ok {
			return nil, badArg("inputs", "missing input %q", n)
		}
	}
	if len(outputNames) > 0 {
		outs := make(map[string]bool)
		for _, n := range e.OutputNames() {
			outs[n] = true
		}
		for _, n := range outputNames {
			if !outs[n] {
				return nil, badArg("outputNames", "unknown output %q", n)
			}
		}
	}

	entries, unpin, err := p.tensors.Acquire(ids...)
	if err != nil {
		return nil, err
	}
	defer unpin()
	in := make(map[string]engine.Value, len(entries))
	for i, te := range entries {
		in[names[i]] = te.Value
	}

	p.log.Debug().Str("session_id", id).Int("log_severity", opts.LogSeverityLevel).
		Int("log_verbosity", opts.LogVerbosityLevel).Msg("run")
	out, err := e.Session.Run(ctx, in, outputNames, opts)
	if err != nil {
		return nil, err
	}
	return p.adoptOutputs(e, out)
}

// adoptOutputs registers run outputs in model order. On failure every
// output, adopted or not, is released.
func (p *Plugin) adoptOutputs(e *registry.SessionEntry, out map[string]engine.Value) (types.RunResult, error) {
	res := types.RunResult{Outputs: make(map[string]types.ValueInfo, len(out)), OutputNames: []string{}}
	var adopted []string
	for _, name := range e.OutputNames() {
		v, ok := out[name]
		if !ok {
			continue
		}
		delete(out, name)
		te, err := p.tensors.Adopt(v)
		if err != nil {
			for _, rest := range out {
				_ = rest.Destroy()
			}
			for _, vid := range adopted {
				_, _ = p.tensors.Release(vid)
			}
			return types.RunResult{}, err
		}
		adopted = append(adopted, te.ID)
		res.Outputs[name] = te.Info()
		res.OutputNames = append(res.OutputNames, name)
	}
	// Values for names the session does not declare are not addressable.
	for _, v := range out {
		_ = v.Destroy()
	}
	return res, nil
}

// inputValueID accepts either {"valueId": id} or a bare id string.
func inputValueID(inputs Args, name string) (string, error) {
	switch v := inputs[name].(type) {
	case string:
		if v == "" {
			return "", newError(CodeInvalidOrtValue, "input %q: value ID cannot be null", name)
		}
		return v, nil
	case map[string]any:
		vid, err := Args(v).String("valueId")
		if isMissingArg(err) || (err == nil && vid == "") {
			return "", newError(CodeInvalidOrtValue, "input %q: value ID cannot be null", name)
		}
		return vid, err
	default:
		return "", badArg("inputs", "input %q must be an OrtValue reference, got %T", name, inputs[name])
	}
}

func parseRunOptions(a Args) (engine.RunOptions, error) {
	var (
		opts engine.RunOptions
		err  error
	)
	if a == nil {
		return opts, nil
	}
	if opts.LogSeverityLevel, err = a.Int("logSeverityLevel", 0); err != nil {
		return opts, err
	}
	if opts.LogVerbosityLevel, err = a.Int("logVerbosityLevel", 0); err != nil {
		return opts, err
	}
	if opts.Terminate, err = a.Bool("terminate", false); err != nil {
		return opts, err
	}
	return opts, nil
}

func (p *Plugin) closeSession(ctx context.Context, args Args) (any, error) {
	id, err := sessionID(args)
	if err != nil {
		return nil, err
	}
	closed, err := p.sessions.Close(id)
	p.meta.Delete(id)
	if err != nil {
		return nil, err
	}
	if closed {
		p.log.Info().Str("session_id", id).Msg("session closed")
	}
	return nil, nil
}

func (p *Plugin) getMetadata(ctx context.Context, args Args) (any, error) {
	id, err := sessionID(args)
	if err != nil {
		return nil, err
	}
	e, err := p.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return p.metadata(e)
}

func (p *Plugin) getInputInfo(ctx context.Context, args Args) (any, error) {
	return p.nodeInfo(args, func(s engine.Session) []engine.NodeInfo { return s.Inputs() })
}

func (p *Plugin) getOutputInfo(ctx context.Context, args Args) (any, error) {
	return p.nodeInfo(args, func(s engine.Session) []engine.NodeInfo { return s.Outputs() })
}

func (p *Plugin) nodeInfo(args Args, nodes func(engine.Session) []engine.NodeInfo) (any, error) {
	id, err := sessionID(args)
	if err != nil {
		return nil, err
	}
	e, err := p.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	src := nodes(e.Session)
	out := make([]types.NodeInfo, 0, len(src))
	for _, n := range src {
		info := types.NodeInfo{Name: n.Name, Shape: []int64{}, Type: "non-tensor"}
		if n.IsTensor {
			info.Shape = []int64(n.Shape.Clone())
			info.Type = n.Type.String()
		}
		out = append(out, info)
	}
	return out, nil
}
