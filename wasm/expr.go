package wasm

// Expr builds an instruction sequence. Methods append and return the
// receiver so bodies read top to bottom:
//
//	body := wasm.NewExpr().LocalGet(0).LocalGet(1).Op(wasm.OpI32Add).End()
type Expr struct {
	w writer
}

// NewExpr returns an empty instruction sequence.
func NewExpr() *Expr {
	return &Expr{}
}

// Op appends a single opcode without immediates.
func (e *Expr) Op(op byte) *Expr {
	e.w.Byte(op)
	return e
}

func (e *Expr) Unreachable() *Expr { return e.Op(OpUnreachable) }
func (e *Expr) Drop() *Expr        { return e.Op(OpDrop) }
func (e *Expr) Return() *Expr      { return e.Op(OpReturn) }
func (e *Expr) Else() *Expr        { return e.Op(OpElse) }

// If opens a void if block.
func (e *Expr) If() *Expr {
	e.w.Byte(OpIf)
	e.w.Byte(BlockVoid)
	return e
}

// Loop opens a void loop block.
func (e *Expr) Loop() *Expr {
	e.w.Byte(OpLoop)
	e.w.Byte(BlockVoid)
	return e
}

// Br branches to the enclosing block at depth.
func (e *Expr) Br(depth uint32) *Expr {
	e.w.Byte(OpBr)
	e.w.WriteU32(depth)
	return e
}

// IfResult opens an if block yielding one value of type t.
func (e *Expr) IfResult(t ValType) *Expr {
	e.w.Byte(OpIf)
	e.w.Byte(byte(t))
	return e
}

func (e *Expr) Call(funcIdx uint32) *Expr {
	e.w.Byte(OpCall)
	e.w.WriteU32(funcIdx)
	return e
}

func (e *Expr) LocalGet(idx uint32) *Expr {
	e.w.Byte(OpLocalGet)
	e.w.WriteU32(idx)
	return e
}

func (e *Expr) LocalSet(idx uint32) *Expr {
	e.w.Byte(OpLocalSet)
	e.w.WriteU32(idx)
	return e
}

func (e *Expr) GlobalGet(idx uint32) *Expr {
	e.w.Byte(OpGlobalGet)
	e.w.WriteU32(idx)
	return e
}

func (e *Expr) GlobalSet(idx uint32) *Expr {
	e.w.Byte(OpGlobalSet)
	e.w.WriteU32(idx)
	return e
}

// I32Const appends i32.const with a signed LEB128 immediate.
func (e *Expr) I32Const(v int32) *Expr {
	e.w.Byte(OpI32Const)
	e.w.WriteS64(int64(v))
	return e
}

// I64Const appends i64.const with a signed LEB128 immediate.
func (e *Expr) I64Const(v int64) *Expr {
	e.w.Byte(OpI64Const)
	e.w.WriteS64(v)
	return e
}

// Append copies the instructions of other into e.
func (e *Expr) Append(other *Expr) *Expr {
	e.w.WriteBytes(other.w.Bytes())
	return e
}

// Bytes returns the instructions without a terminating end.
func (e *Expr) Bytes() []byte {
	return e.w.Bytes()
}

// End terminates the sequence and returns the encoded bytes.
func (e *Expr) End() []byte {
	e.w.Byte(OpEnd)
	return e.w.Bytes()
}

// Body wraps the terminated sequence into a function body.
func (e *Expr) Body(locals ...LocalEntry) FuncBody {
	return FuncBody{Locals: locals, Code: e.End()}
}
