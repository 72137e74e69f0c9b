package challenges

import (
	"encoding/json"
	"fmt"
	"math/rand"

	agentauth "github.com/agentauth/engine"
	"github.com/dop251/goja"
)

// ---------------------------------------------------------------------------
// Bug definitions
// ---------------------------------------------------------------------------

type bugDef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var (
	bugOffByOne    = bugDef{Name: "off_by_one", Description: "Off by one: uses % 255 instead of % 256 in the modulo operation, or runs one round too few in the hash loop"}
	bugWrongOp     = bugDef{Name: "wrong_operator", Description: "Uses + (addition) instead of ^ (XOR) as the accumulator operator"}
	bugMissingStep = bugDef{Name: "missing_step", Description: "Missing byte reversal between hash rounds"}
	bugWrongInit   = bugDef{Name: "wrong_init", Description: "Accumulator initialized to 1 instead of 0"}
	bugWrongPad    = bugDef{Name: "wrong_pad", Description: "padStart uses length 1 instead of 2 for hex encoding"}
	bugWrongShift  = bugDef{Name: "wrong_shift", Description: "Multiplier is shifted left by 7; the correct multiplier is (i + 1) with no shift"}
)

// ---------------------------------------------------------------------------
// Code template interface
// ---------------------------------------------------------------------------

type templateInput struct {
	Data   string                 `json:"data"` // base64-encoded
	Params map[string]interface{} `json:"params"`
}

// codeTemplate generates both the buggy JS shown to the solver and the
// fixed JS actually run through goja to derive the correct answer -- a
// single source of truth instead of a parallel Go reimplementation that
// could silently drift from the buggy description.
type codeTemplate struct {
	name          string
	entryPoint    string
	availableBugs []bugDef
	generateInput func() (templateInput, error)
	buggyCode     func(input templateInput, activeBugs []bugDef) string
	fixedCode     func(input templateInput) string
	callArgs      func(vm *goja.Runtime, input templateInput) []goja.Value
}

// ---------------------------------------------------------------------------
// Template 1: Byte Transform
// ---------------------------------------------------------------------------

func byteTransformGenInput() (templateInput, error) {
	size := randomInt(8, 16)
	data, err := agentauth.RandomBytes(size)
	if err != nil {
		return templateInput{}, err
	}
	return templateInput{
		Data:   agentauth.Base64Encode(data),
		Params: map[string]interface{}{},
	}, nil
}

func byteTransformBuggyCode(input templateInput, activeBugs []bugDef) string {
	mod := "256"
	if hasBug(activeBugs, "off_by_one") {
		mod = "255"
	}
	multiplier := "(i + 1)"
	if hasBug(activeBugs, "wrong_shift") {
		multiplier = "((i + 1) << 7)"
	}

	return fmt.Sprintf(`function transform(data) {
  // data is a Uint8Array
  const result = [];
  for (let i = 0; i < data.length; i++) {
    result.push((data[i] * %s) %% %s);
  }
  // Return the SHA-256 hex digest of the resulting byte array
  return sha256hex(Uint8Array.from(result));
}`, multiplier, mod)
}

func byteTransformFixedCode(input templateInput) string {
	return `function transform(data) {
  const result = [];
  for (let i = 0; i < data.length; i++) {
    result.push((data[i] * (i + 1)) % 256);
  }
  return sha256hex(Uint8Array.from(result));
}`
}

// ---------------------------------------------------------------------------
// Template 2: Array Processing (accumulator)
// ---------------------------------------------------------------------------

func arrayProcessingGenInput() (templateInput, error) {
	size := randomInt(8, 24)
	data, err := agentauth.RandomBytes(size)
	if err != nil {
		return templateInput{}, err
	}
	return templateInput{
		Data:   agentauth.Base64Encode(data),
		Params: map[string]interface{}{},
	}, nil
}

func arrayProcessingBuggyCode(input templateInput, activeBugs []bugDef) string {
	operator := "^"
	if hasBug(activeBugs, "wrong_operator") {
		operator = "+"
	}
	initVal := "0"
	if hasBug(activeBugs, "wrong_init") {
		initVal = "1"
	}
	padLen := "2"
	if hasBug(activeBugs, "wrong_pad") {
		padLen = "1"
	}

	return fmt.Sprintf(`function process(data) {
  // data is a Uint8Array
  let acc = %s;
  for (const byte of data) {
    acc = (acc %s byte) & 0xFF;
  }
  return acc.toString(16).padStart(%s, '0');
}`, initVal, operator, padLen)
}

func arrayProcessingFixedCode(input templateInput) string {
	return `function process(data) {
  let acc = 0;
  for (const byte of data) {
    acc = (acc ^ byte) & 0xFF;
  }
  return acc.toString(16).padStart(2, '0');
}`
}

// ---------------------------------------------------------------------------
// Template 3: Hash Chain
// ---------------------------------------------------------------------------

func hashChainGenInput() (templateInput, error) {
	size := randomInt(8, 16)
	data, err := agentauth.RandomBytes(size)
	if err != nil {
		return templateInput{}, err
	}
	rounds := randomInt(2, 4)
	return templateInput{
		Data:   agentauth.Base64Encode(data),
		Params: map[string]interface{}{"rounds": rounds},
	}, nil
}

func hashChainBuggyCode(input templateInput, activeBugs []bugDef) string {
	rounds := input.Params["rounds"].(int)
	loopEnd := fmt.Sprintf("%d", rounds)
	if hasBug(activeBugs, "off_by_one") {
		loopEnd = fmt.Sprintf("%d - 1", rounds)
	}
	reverseLine := "      current = current.reverse();"
	if hasBug(activeBugs, "missing_step") {
		reverseLine = "      // (no reversal step)"
	}

	return fmt.Sprintf(`function hashChain(data, rounds) {
  // data is a Uint8Array, rounds = %d
  let current = data;
  for (let i = 0; i < %s; i++) {
    current = sha256(current); // returns Uint8Array
%s
  }
  return hex(current); // returns hex string
}`, rounds, loopEnd, reverseLine)
}

func hashChainFixedCode(input templateInput) string {
	rounds := input.Params["rounds"].(int)
	return fmt.Sprintf(`function hashChain(data, rounds) {
  let current = data;
  for (let i = 0; i < %d; i++) {
    current = sha256(current);
    current = current.reverse();
  }
  return hex(current);
}`, rounds)
}

// ---------------------------------------------------------------------------
// call args (shared): every template's entry point takes the input data as
// a JS array of byte values, plus hash_chain additionally takes rounds.
// ---------------------------------------------------------------------------

func dataCallArgs(vm *goja.Runtime, input templateInput) []goja.Value {
	data, _ := agentauth.Base64Decode(input.Data)
	return []goja.Value{bytesToJSArray(vm, data)}
}

func hashChainCallArgs(vm *goja.Runtime, input templateInput) []goja.Value {
	data, _ := agentauth.Base64Decode(input.Data)
	rounds := input.Params["rounds"].(int)
	return []goja.Value{bytesToJSArray(vm, data), vm.ToValue(rounds)}
}

// ---------------------------------------------------------------------------
// All templates
// ---------------------------------------------------------------------------

var allCodeTemplates = []codeTemplate{
	{
		name:          "byte_transform",
		entryPoint:    "transform",
		availableBugs: []bugDef{bugOffByOne, bugWrongShift},
		generateInput: byteTransformGenInput,
		buggyCode:     byteTransformBuggyCode,
		fixedCode:     byteTransformFixedCode,
		callArgs:      dataCallArgs,
	},
	{
		name:          "array_processing",
		entryPoint:    "process",
		availableBugs: []bugDef{bugWrongOp, bugWrongInit, bugWrongPad},
		generateInput: arrayProcessingGenInput,
		buggyCode:     arrayProcessingBuggyCode,
		fixedCode:     arrayProcessingFixedCode,
		callArgs:      dataCallArgs,
	},
	{
		name:          "hash_chain",
		entryPoint:    "hashChain",
		availableBugs: []bugDef{bugMissingStep, bugOffByOne},
		generateInput: hashChainGenInput,
		buggyCode:     hashChainBuggyCode,
		fixedCode:     hashChainFixedCode,
		callArgs:      hashChainCallArgs,
	},
}

// ---------------------------------------------------------------------------
// Difficulty configuration
// ---------------------------------------------------------------------------

type codeExecDiffConfig struct {
	bugCount      int
	templateNames []string
	edgeCaseHint  bool
}

var codeExecDiffConfigs = map[agentauth.Difficulty]codeExecDiffConfig{
	agentauth.DifficultyEasy:        {bugCount: 1, templateNames: []string{"byte_transform", "array_processing"}, edgeCaseHint: false},
	agentauth.DifficultyMedium:      {bugCount: 1, templateNames: []string{"byte_transform", "array_processing", "hash_chain"}, edgeCaseHint: false},
	agentauth.DifficultyHard:        {bugCount: 2, templateNames: []string{"byte_transform", "array_processing", "hash_chain"}, edgeCaseHint: false},
	agentauth.DifficultyAdversarial: {bugCount: 3, templateNames: []string{"byte_transform", "array_processing", "hash_chain"}, edgeCaseHint: true},
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func hasBug(bugs []bugDef, name string) bool {
	for _, b := range bugs {
		if b.Name == name {
			return true
		}
	}
	return false
}

func selectBugs(tmpl codeTemplate, count int) []bugDef {
	available := make([]bugDef, len(tmpl.availableBugs))
	copy(available, tmpl.availableBugs)
	selected := make([]bugDef, 0, count)

	toSelect := count
	if toSelect > len(available) {
		toSelect = len(available)
	}
	for i := 0; i < toSelect; i++ {
		idx := rand.Intn(len(available))
		selected = append(selected, available[idx])
		available = append(available[:idx], available[idx+1:]...)
	}
	return selected
}

// ---------------------------------------------------------------------------
// goja runtime wiring
// ---------------------------------------------------------------------------

func bytesToJSArray(vm *goja.Runtime, data []byte) goja.Value {
	nums := make([]interface{}, len(data))
	for i, b := range data {
		nums[i] = int64(b)
	}
	return vm.ToValue(nums)
}

func jsValueToBytes(v goja.Value) ([]byte, error) {
	exported := v.Export()
	switch vv := exported.(type) {
	case []byte:
		return vv, nil
	case []interface{}:
		out := make([]byte, len(vv))
		for i, item := range vv {
			switch n := item.(type) {
			case int64:
				out[i] = byte(n)
			case float64:
				out[i] = byte(n)
			default:
				return nil, fmt.Errorf("unexpected array element type %T", item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to bytes", exported)
	}
}

// newCodeRuntime builds a goja VM with the sha256hex/sha256/hex globals the
// code-execution templates reference, matching the primitives the instructions
// describe to the solver.
func newCodeRuntime() *goja.Runtime {
	vm := goja.New()

	vm.Set("sha256hex", func(call goja.FunctionCall) goja.Value {
		data, err := jsValueToBytes(call.Argument(0))
		if err != nil {
			panic(vm.ToValue(err.Error()))
		}
		return vm.ToValue(agentauth.ToHex(agentauth.SHA256Bytes(data)))
	})

	vm.Set("sha256", func(call goja.FunctionCall) goja.Value {
		data, err := jsValueToBytes(call.Argument(0))
		if err != nil {
			panic(vm.ToValue(err.Error()))
		}
		return bytesToJSArray(vm, agentauth.SHA256Bytes(data))
	})

	vm.Set("hex", func(call goja.FunctionCall) goja.Value {
		data, err := jsValueToBytes(call.Argument(0))
		if err != nil {
			panic(vm.ToValue(err.Error()))
		}
		return vm.ToValue(agentauth.ToHex(data))
	})

	return vm
}

// runTemplate executes a template's fixed JS source through goja and returns
// the function's result as a string -- the grading answer.
func runTemplate(tmpl codeTemplate, input templateInput) (string, error) {
	vm := newCodeRuntime()
	if _, err := vm.RunString(tmpl.fixedCode(input)); err != nil {
		return "", fmt.Errorf("compiling fixed source for %s: %w", tmpl.name, err)
	}

	entryFn, ok := goja.AssertFunction(vm.Get(tmpl.entryPoint))
	if !ok {
		return "", fmt.Errorf("entry point %s not a function", tmpl.entryPoint)
	}

	args := tmpl.callArgs(vm, input)
	result, err := entryFn(goja.Undefined(), args...)
	if err != nil {
		return "", fmt.Errorf("executing %s: %w", tmpl.name, err)
	}
	return result.String(), nil
}

// ---------------------------------------------------------------------------
// CodeExecutionDriver
// ---------------------------------------------------------------------------

// CodeExecutionDriver implements the code-execution challenge: identify bugs
// in code, mentally fix and execute, and return the correct output. The
// grading answer is derived by running the real, bug-free JS source through
// an embedded JS runtime rather than a hand-reimplemented Go equivalent.
type CodeExecutionDriver struct{}

func (d *CodeExecutionDriver) Name() string { return "code-execution" }

func (d *CodeExecutionDriver) Dimensions() []agentauth.Dimension {
	return []agentauth.Dimension{agentauth.DimensionReasoning, agentauth.DimensionExecution}
}

func (d *CodeExecutionDriver) EstimatedHumanTimeMs(difficulty agentauth.Difficulty) int64 { return 120000 }
func (d *CodeExecutionDriver) EstimatedAITimeMs(difficulty agentauth.Difficulty) int64    { return 2000 }

// Generate creates a code-execution challenge.
func (d *CodeExecutionDriver) Generate(difficulty agentauth.Difficulty) (*agentauth.ChallengePayload, string, error) {
	config := codeExecDiffConfigs[difficulty]

	var eligible []codeTemplate
	for _, tmpl := range allCodeTemplates {
		for _, name := range config.templateNames {
			if tmpl.name == name {
				eligible = append(eligible, tmpl)
				break
			}
		}
	}
	tmpl := pickRandom(eligible)

	input, err := tmpl.generateInput()
	if err != nil {
		return nil, "", fmt.Errorf("generating input: %w", err)
	}

	bugs := selectBugs(tmpl, config.bugCount)
	buggyCode := tmpl.buggyCode(input, bugs)

	correctOutput, err := runTemplate(tmpl, input)
	if err != nil {
		return nil, "", fmt.Errorf("computing correct output: %w", err)
	}

	inputBytes, err := agentauth.Base64Decode(input.Data)
	if err != nil {
		return nil, "", fmt.Errorf("decoding input: %w", err)
	}
	inputHex := agentauth.ToHex(inputBytes)

	paramLines := ""
	if rounds, ok := input.Params["rounds"]; ok {
		paramLines = fmt.Sprintf("Rounds: %v\n", rounds)
	}

	edgeCaseNote := ""
	if config.edgeCaseHint {
		edgeCaseNote = "\n\nNote: Pay close attention to boundary conditions, operator precedence, and off-by-one errors."
	}

	instructions := fmt.Sprintf(`The following JavaScript function contains bug(s). Your task is to:
1. Identify and fix all bugs in the code
2. Mentally execute the fixed code with the provided input
3. Return the correct output

## Code
`+"```javascript\n%s\n```"+`

## Input
Data (hex): %s
%s
## Notes
- sha256hex() / sha256() compute SHA-256 and return hex string / Uint8Array respectively
- hex() converts a Uint8Array to a hex string
- All arithmetic on bytes should stay within 0-255 range%s

Return the exact output of the fixed function.`, buggyCode, inputHex, paramLines, edgeCaseNote)

	answerHash := agentauth.SHA256Hex(correctOutput)

	bugsJSON := make([]map[string]string, len(bugs))
	for i, b := range bugs {
		bugsJSON[i] = map[string]string{"name": b.Name, "description": b.Description}
	}
	contextMap := map[string]interface{}{
		"templateName":  tmpl.name,
		"bugs":          bugsJSON,
		"correctOutput": correctOutput,
		"inputParams":   input.Params,
	}
	contextJSON, err := json.Marshal(contextMap)
	if err != nil {
		return nil, "", fmt.Errorf("marshaling context: %w", err)
	}

	payload := &agentauth.ChallengePayload{
		Type:         "code-execution",
		Instructions: instructions,
		Data:         input.Data,
		Steps:        len(bugs),
		Context:      contextJSON,
	}

	return payload, answerHash, nil
}

// Verify checks whether the submitted answer matches the answer hash.
func (d *CodeExecutionDriver) Verify(answerHash string, submitted string) (bool, error) {
	return agentauth.TimingSafeEqual(answerHash, agentauth.SHA256Hex(submitted)), nil
}
