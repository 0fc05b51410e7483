//go:build onnx

package engine

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// ortEngine drives ONNX Runtime through cgo.
type ortEngine struct {
	providers []string
}

// New initializes the ONNX Runtime environment once per process.
func New(cfg Config) (Engine, error) {
	ortInitOnce.Do(func() {
		if cfg.LibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.LibraryPath)
		}
		if !ort.IsInitialized() {
			ortInitErr = ort.InitializeEnvironment()
		}
	})
	if ortInitErr != nil {
		return nil, ErrDependencyUnavailable(errors.Wrap(ortInitErr, "initialize onnxruntime").Error())
	}
	return &ortEngine{providers: withCPU(cfg.Providers)}, nil
}

func (e *ortEngine) Name() string        { return "onnxruntime" }
func (e *ortEngine) Version() string     { return ort.GetVersion() }
func (e *ortEngine) Providers() []string { return append([]string(nil), e.providers...) }

func (e *ortEngine) Close() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

func (e *ortEngine) NewSession(path string, opts SessionOptions) (Session, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, ErrRuntime(errors.Wrapf(err, "read model info %s", path))
	}
	so, err := e.sessionOptions(opts)
	if err != nil {
		return nil, err
	}
	defer so.Destroy()

	s := &ortSession{path: path}
	inNames := make([]string, 0, len(inputs))
	for _, in := range inputs {
		inNames = append(inNames, in.Name)
		s.inputs = append(s.inputs, nodeInfo(in))
	}
	outNames := make([]string, 0, len(outputs))
	for _, out := range outputs {
		outNames = append(outNames, out.Name)
		s.outputs = append(s.outputs, nodeInfo(out))
	}
	sess, err := ort.NewDynamicAdvancedSession(path, inNames, outNames, so)
	if err != nil {
		return nil, ErrRuntime(errors.Wrapf(err, "create session %s", path))
	}
	s.sess = sess
	return s, nil
}

func (e *ortEngine) sessionOptions(opts SessionOptions) (*ort.SessionOptions, error) {
	so, err := ort.NewSessionOptions()
	if err != nil {
		return nil, ErrRuntime(errors.Wrap(err, "session options"))
	}
	fail := func(err error, what string) (*ort.SessionOptions, error) {
		so.Destroy()
		return nil, ErrRuntime(errors.Wrap(err, what))
	}
	if opts.IntraOpNumThreads > 0 {
		if err := so.SetIntraOpNumThreads(opts.IntraOpNumThreads); err != nil {
			return fail(err, "set intra-op threads")
		}
	}
	if opts.InterOpNumThreads > 0 {
		if err := so.SetInterOpNumThreads(opts.InterOpNumThreads); err != nil {
			return fail(err, "set inter-op threads")
		}
	}
	if opts.GraphOptimizationLevel != "" {
		level, ok := graphOptimizationLevels[strings.ToLower(opts.GraphOptimizationLevel)]
		if !ok {
			so.Destroy()
			return nil, errors.Errorf("unknown graph optimization level %q", opts.GraphOptimizationLevel)
		}
		if err := so.SetGraphOptimizationLevel(level); err != nil {
			return fail(err, "set graph optimization level")
		}
	}
	if opts.EnableCPUMemArena != nil {
		if err := so.SetCpuMemArena(*opts.EnableCPUMemArena); err != nil {
			return fail(err, "set cpu mem arena")
		}
	}
	if opts.EnableMemPattern != nil {
		if err := so.SetMemPattern(*opts.EnableMemPattern); err != nil {
			return fail(err, "set mem pattern")
		}
	}
	for _, p := range opts.Providers {
		name := normalizeProvider(p)
		if !e.allowed(name) {
			so.Destroy()
			return nil, ErrDependencyUnavailable("execution provider not enabled: " + name)
		}
		if err := appendProvider(so, name, opts.DeviceID); err != nil {
			return fail(err, "enable "+name)
		}
	}
	return so, nil
}

func (e *ortEngine) allowed(name string) bool {
	for _, p := range e.providers {
		if p == name {
			return true
		}
	}
	return false
}

var graphOptimizationLevels = map[string]ort.GraphOptimizationLevel{
	"disable_all": ort.GraphOptimizationLevelDisableAll,
	"basic":       ort.GraphOptimizationLevelEnableBasic,
	"extended":    ort.GraphOptimizationLevelEnableExtended,
	"all":         ort.GraphOptimizationLevelEnableAll,
}

func appendProvider(so *ort.SessionOptions, name string, deviceID int) error {
	switch name {
	case "CPU":
		return nil
	case "CUDA":
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return err
		}
		defer cuda.Destroy()
		if err := cuda.Update(map[string]string{"device_id": strconv.Itoa(deviceID)}); err != nil {
			return err
		}
		return so.AppendExecutionProviderCUDA(cuda)
	case "CoreML":
		return so.AppendExecutionProviderCoreML(0)
	case "DirectML":
		return so.AppendExecutionProviderDirectML(deviceID)
	case "OpenVINO":
		return so.AppendExecutionProviderOpenVINO(map[string]string{"device_id": strconv.Itoa(deviceID)})
	default:
		return errors.Errorf("unsupported execution provider %q", name)
	}
}

func nodeInfo(in ort.InputOutputInfo) NodeInfo {
	if in.OrtValueType != ort.ONNXTypeTensor {
		return NodeInfo{Name: in.Name, Shape: Shape{}}
	}
	return NodeInfo{
		Name:     in.Name,
		Shape:    Shape(in.Dimensions).Clone(),
		Type:     ElementType(in.DataType),
		IsTensor: true,
	}
}

// ortSession wraps a DynamicAdvancedSession bound to every model input and output.
type ortSession struct {
	mu      sync.Mutex
	path    string
	sess    *ort.DynamicAdvancedSession
	inputs  []NodeInfo
	outputs []NodeInfo
}

func (s *ortSession) Inputs() []NodeInfo  { return append([]NodeInfo(nil), s.inputs...) }
func (s *ortSession) Outputs() []NodeInfo { return append([]NodeInfo(nil), s.outputs...) }

func (s *ortSession) Metadata() (ModelMetadata, error) {
	md, err := ort.GetModelMetadata(s.path)
	if err != nil {
		return ModelMetadata{}, ErrRuntime(errors.Wrap(err, "model metadata"))
	}
	defer md.Destroy()
	var out ModelMetadata
	if out.ProducerName, err = md.GetProducerName(); err != nil {
		return out, ErrRuntime(errors.Wrap(err, "producer name"))
	}
	if out.GraphName, err = md.GetGraphName(); err != nil {
		return out, ErrRuntime(errors.Wrap(err, "graph name"))
	}
	if out.Domain, err = md.GetDomain(); err != nil {
		return out, ErrRuntime(errors.Wrap(err, "domain"))
	}
	if out.Description, err = md.GetDescription(); err != nil {
		return out, ErrRuntime(errors.Wrap(err, "description"))
	}
	if out.Version, err = md.GetVersion(); err != nil {
		return out, ErrRuntime(errors.Wrap(err, "version"))
	}
	keys, err := md.GetCustomMetadataMapKeys()
	if err != nil {
		return out, ErrRuntime(errors.Wrap(err, "custom metadata keys"))
	}
	out.Custom = make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok, err := md.LookupCustomMetadataMap(k)
		if err != nil {
			return out, ErrRuntime(errors.Wrapf(err, "custom metadata %q", k))
		}
		if ok {
			out.Custom[k] = v
		}
	}
	return out, nil
}

func (s *ortSession) Run(ctx context.Context, inputs map[string]Value, outputNames []string, opts RunOptions) (map[string]Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	sess := s.sess
	s.mu.Unlock()
	if sess == nil {
		return nil, ErrClosed
	}

	in := make([]ort.Value, len(s.inputs))
	var scratch []ort.Value
	defer func() {
		for _, v := range scratch {
			v.Destroy()
		}
	}()
	for i, node := range s.inputs {
		v, ok := inputs[node.Name]
		if !ok {
			return nil, errors.Errorf("missing input %q", node.Name)
		}
		ov, tmp, err := asOrtValue(v)
		if err != nil {
			return nil, err
		}
		if tmp {
			scratch = append(scratch, ov)
		}
		in[i] = ov
	}
	want := map[string]bool{}
	for _, n := range outputNames {
		want[n] = true
	}
	out, err := s.bindOutputs(want)
	if err != nil {
		return nil, err
	}
	ro, release, err := runOptions(ctx, opts)
	if err != nil {
		destroyAll(out)
		return nil, err
	}
	err = sess.RunWithOptions(in, out, ro)
	release()
	if err != nil {
		destroyAll(out)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, ErrRuntime(errors.Wrap(err, "run"))
	}

	res := make(map[string]Value, len(out))
	var convErr error
	for i, v := range out {
		name := s.outputs[i].Name
		if v == nil {
			continue
		}
		if (len(want) > 0 && !want[name]) || convErr != nil {
			v.Destroy()
			continue
		}
		wrapped, err := wrapOrtValue(v, s.outputs[i].Type)
		if err != nil {
			v.Destroy()
			convErr = errors.Wrapf(err, "output %q", name)
			continue
		}
		res[name] = wrapped
	}
	if convErr != nil {
		for _, v := range res {
			v.Destroy()
		}
		return nil, ErrRuntime(convErr)
	}
	if err := ctx.Err(); err != nil {
		for _, v := range res {
			v.Destroy()
		}
		return nil, err
	}
	return res, nil
}

// bindOutputs returns the output slots for a run. nil slots are allocated by
// the runtime; requested half-precision outputs with a static shape get a
// preallocated tensor.
func (s *ortSession) bindOutputs(want map[string]bool) ([]ort.Value, error) {
	out := make([]ort.Value, len(s.outputs))
	for i, node := range s.outputs {
		if !preallocated(node) || (len(want) > 0 && !want[node.Name]) {
			continue
		}
		count, err := node.Shape.ElementCount()
		if err != nil {
			destroyAll(out)
			return nil, errors.Wrapf(err, "output %q", node.Name)
		}
		v, err := ort.NewCustomDataTensor(ort.Shape(node.Shape.Clone()), make([]byte, 2*count), ort.TensorElementDataType(node.Type))
		if err != nil {
			destroyAll(out)
			return nil, ErrRuntime(errors.Wrapf(err, "allocate output %q", node.Name))
		}
		out[i] = v
	}
	return out, nil
}

// runOptions builds the options for one run. The run is terminated when ctx
// is done; release must be called once the run returns.
func runOptions(ctx context.Context, opts RunOptions) (*ort.RunOptions, func(), error) {
	ro, err := ort.NewRunOptions()
	if err != nil {
		return nil, nil, ErrRuntime(errors.Wrap(err, "run options"))
	}
	if opts.Terminate {
		if err := ro.Terminate(); err != nil {
			ro.Destroy()
			return nil, nil, ErrRuntime(errors.Wrap(err, "terminate run"))
		}
	}
	var (
		mu   sync.Mutex
		done bool
	)
	stop := context.AfterFunc(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		if !done {
			ro.Terminate()
		}
	})
	release := func() {
		stop()
		mu.Lock()
		done = true
		mu.Unlock()
		ro.Destroy()
	}
	return ro, release, nil
}

func destroyAll(vs []ort.Value) {
	for _, v := range vs {
		if v != nil {
			v.Destroy()
		}
	}
}

func (s *ortSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return nil
	}
	err := s.sess.Destroy()
	s.sess = nil
	if err != nil {
		return ErrRuntime(errors.Wrap(err, "destroy session"))
	}
	return nil
}
