package chip8

import "fmt"

// Op is a decoded CHIP-8 instruction. The set of implementations is closed;
// every Op is one of the types declared in this file.
type Op interface {
	fmt.Stringer
	isOp()
}

// Reg is the index of a general purpose register, V0 through VF.
type Reg byte

func (r Reg) String() string { return fmt.Sprintf("V%X", byte(r)) }

// Flag is the register that receives carry, borrow and collision results.
const Flag Reg = 0xf

type (
	// Clear clears the display (00E0).
	Clear struct{}
	// Return pops the call stack into PC (00EE).
	Return struct{}
	// Jump sets PC to Addr (1nnn).
	Jump struct{ Addr uint16 }
	// Call pushes the return address (the address after the Call, not the
	// Call's own address) and jumps to Addr (2nnn).
	Call struct{ Addr uint16 }
	// SkipEq skips the next instruction if Vx == Byte (3xkk).
	SkipEq struct {
		X    Reg
		Byte byte
	}
	// SkipNeq skips the next instruction if Vx != Byte (4xkk).
	SkipNeq struct {
		X    Reg
		Byte byte
	}
	// SkipRegEq skips the next instruction if Vx == Vy (5xy0).
	SkipRegEq struct{ X, Y Reg }
	// Load sets Vx to Byte (6xkk).
	Load struct {
		X    Reg
		Byte byte
	}
	// Add adds Byte to Vx without touching VF (7xkk).
	Add struct {
		X    Reg
		Byte byte
	}
	// LoadReg copies Vy into Vx (8xy0).
	LoadReg struct{ X, Y Reg }
	// Or sets Vx to Vx|Vy (8xy1).
	Or struct{ X, Y Reg }
	// And sets Vx to Vx&Vy (8xy2).
	And struct{ X, Y Reg }
	// Xor sets Vx to Vx^Vy (8xy3).
	Xor struct{ X, Y Reg }
	// AddReg sets Vx to Vx+Vy and VF to the carry (8xy4).
	AddReg struct{ X, Y Reg }
	// Sub sets Vx to Vx-Vy; VF is 1 if Vx > Vy (8xy5).
	Sub struct{ X, Y Reg }
	// ShiftRight moves bit 0 of Vx into VF and shifts Vx right (8xy6).
	ShiftRight struct{ X Reg }
	// SubReverse sets Vx to Vy-Vx; VF is 1 if Vy > Vx (8xy7).
	SubReverse struct{ X, Y Reg }
	// ShiftLeft moves bit 7 of Vx into VF and shifts Vx left (8xyE).
	ShiftLeft struct{ X Reg }
	// SkipRegNeq skips the next instruction if Vx != Vy (9xy0).
	SkipRegNeq struct{ X, Y Reg }
	// LoadIndex sets I to Addr (Annn).
	LoadIndex struct{ Addr uint16 }
	// JumpIndexed sets PC to V0+Addr (Bnnn).
	JumpIndexed struct{ Addr uint16 }
	// Random sets Vx to a random byte masked with Byte (Cxkk).
	Random struct {
		X    Reg
		Byte byte
	}
	// Draw XORs the N byte sprite at I onto the display at (Vx, Vy) (Dxyn).
	Draw struct {
		X, Y Reg
		N    byte
	}
	// SkipKeyPressed skips the next instruction if key Vx is down (Ex9E).
	SkipKeyPressed struct{ X Reg }
	// SkipKeyNotPressed skips the next instruction if key Vx is up (ExA1).
	SkipKeyNotPressed struct{ X Reg }
	// GetDelay copies the delay timer into Vx (Fx07).
	GetDelay struct{ X Reg }
	// WaitKey stalls until a key is down and stores it in Vx (Fx0A).
	WaitKey struct{ X Reg }
	// SetDelay sets the delay timer from Vx (Fx15).
	SetDelay struct{ X Reg }
	// SetSound sets the sound timer from Vx (Fx18).
	SetSound struct{ X Reg }
	// AddToIndex adds Vx to I (Fx1E).
	AddToIndex struct{ X Reg }
	// LoadDigitSprite points I at the font sprite for digit Vx (Fx29).
	LoadDigitSprite struct{ X Reg }
	// StoreBCD writes the three decimal digits of Vx to I, I+1, I+2 (Fx33).
	StoreBCD struct{ X Reg }
	// StoreRegs writes V0 through Vx to memory starting at I (Fx55).
	StoreRegs struct{ X Reg }
	// LoadRegs reads V0 through Vx from memory starting at I (Fx65).
	LoadRegs struct{ X Reg }
)

func (Clear) isOp()             {}
func (Return) isOp()            {}
func (Jump) isOp()              {}
func (Call) isOp()              {}
func (SkipEq) isOp()            {}
func (SkipNeq) isOp()           {}
func (SkipRegEq) isOp()         {}
func (Load) isOp()              {}
func (Add) isOp()               {}
func (LoadReg) isOp()           {}
func (Or) isOp()                {}
func (And) isOp()               {}
func (Xor) isOp()               {}
func (AddReg) isOp()            {}
func (Sub) isOp()               {}
func (ShiftRight) isOp()        {}
func (SubReverse) isOp()        {}
func (ShiftLeft) isOp()         {}
func (SkipRegNeq) isOp()        {}
func (LoadIndex) isOp()         {}
func (JumpIndexed) isOp()       {}
func (Random) isOp()            {}
func (Draw) isOp()              {}
func (SkipKeyPressed) isOp()    {}
func (SkipKeyNotPressed) isOp() {}
func (GetDelay) isOp()          {}
func (WaitKey) isOp()           {}
func (SetDelay) isOp()          {}
func (SetSound) isOp()          {}
func (AddToIndex) isOp()        {}
func (LoadDigitSprite) isOp()   {}
func (StoreBCD) isOp()          {}
func (StoreRegs) isOp()         {}
func (LoadRegs) isOp()          {}

func (Clear) String() string               { return "CLS" }
func (Return) String() string              { return "RET" }
func (o Jump) String() string              { return "JP " + addr(o.Addr) }
func (o Call) String() string              { return "CALL " + addr(o.Addr) }
func (o SkipEq) String() string            { return fmt.Sprintf("SE %v, %s", o.X, imm(o.Byte)) }
func (o SkipNeq) String() string           { return fmt.Sprintf("SNE %v, %s", o.X, imm(o.Byte)) }
func (o SkipRegEq) String() string         { return fmt.Sprintf("SE %v, %v", o.X, o.Y) }
func (o Load) String() string              { return fmt.Sprintf("LD %v, %s", o.X, imm(o.Byte)) }
func (o Add) String() string               { return fmt.Sprintf("ADD %v, %s", o.X, imm(o.Byte)) }
func (o LoadReg) String() string           { return fmt.Sprintf("LD %v, %v", o.X, o.Y) }
func (o Or) String() string                { return fmt.Sprintf("OR %v, %v", o.X, o.Y) }
func (o And) String() string               { return fmt.Sprintf("AND %v, %v", o.X, o.Y) }
func (o Xor) String() string               { return fmt.Sprintf("XOR %v, %v", o.X, o.Y) }
func (o AddReg) String() string            { return fmt.Sprintf("ADD %v, %v", o.X, o.Y) }
func (o Sub) String() string               { return fmt.Sprintf("SUB %v, %v", o.X, o.Y) }
func (o ShiftRight) String() string        { return fmt.Sprintf("SHR %v", o.X) }
func (o SubReverse) String() string        { return fmt.Sprintf("SUBN %v, %v", o.X, o.Y) }
func (o ShiftLeft) String() string         { return fmt.Sprintf("SHL %v", o.X) }
func (o SkipRegNeq) String() string        { return fmt.Sprintf("SNE %v, %v", o.X, o.Y) }
func (o LoadIndex) String() string         { return "LD I, " + addr(o.Addr) }
func (o JumpIndexed) String() string       { return "JP V0, " + addr(o.Addr) }
func (o Random) String() string            { return fmt.Sprintf("RND %v, %s", o.X, imm(o.Byte)) }
func (o Draw) String() string              { return fmt.Sprintf("DRW %v, %v, %d", o.X, o.Y, o.N) }
func (o SkipKeyPressed) String() string    { return fmt.Sprintf("SKP %v", o.X) }
func (o SkipKeyNotPressed) String() string { return fmt.Sprintf("SKNP %v", o.X) }
func (o GetDelay) String() string          { return fmt.Sprintf("LD %v, DT", o.X) }
func (o WaitKey) String() string           { return fmt.Sprintf("LD %v, K", o.X) }
func (o SetDelay) String() string          { return fmt.Sprintf("LD DT, %v", o.X) }
func (o SetSound) String() string          { return fmt.Sprintf("LD ST, %v", o.X) }
func (o AddToIndex) String() string        { return fmt.Sprintf("ADD I, %v", o.X) }
func (o LoadDigitSprite) String() string   { return fmt.Sprintf("LD F, %v", o.X) }
func (o StoreBCD) String() string          { return fmt.Sprintf("LD B, %v", o.X) }
func (o StoreRegs) String() string         { return fmt.Sprintf("LD [I], %v", o.X) }
func (o LoadRegs) String() string          { return fmt.Sprintf("LD %v, [I]", o.X) }

func addr(a uint16) string { return fmt.Sprintf("0x%.3X", a) }
func imm(b byte) string    { return fmt.Sprintf("0x%.2X", b) }
