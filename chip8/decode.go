package chip8

import "fmt"

// Decode translates a 16-bit instruction word into an Op.
// Words that do not name an instruction yield an OpcodeError.
func Decode(w uint16) (Op, error) {
	var (
		hi, x, y, n = nibbles(w)
		a           = w & 0x0fff
		b           = byte(w)
	)
	switch hi {
	case 0x0:
		switch w {
		case 0x00e0:
			return Clear{}, nil
		case 0x00ee:
			return Return{}, nil
		}
	case 0x1:
		return Jump{a}, nil
	case 0x2:
		return Call{a}, nil
	case 0x3:
		return SkipEq{x, b}, nil
	case 0x4:
		return SkipNeq{x, b}, nil
	case 0x5:
		if n == 0x0 {
			return SkipRegEq{x, y}, nil
		}
	case 0x6:
		return Load{x, b}, nil
	case 0x7:
		return Add{x, b}, nil
	case 0x8:
		switch n {
		case 0x0:
			return LoadReg{x, y}, nil
		case 0x1:
			return Or{x, y}, nil
		case 0x2:
			return And{x, y}, nil
		case 0x3:
			return Xor{x, y}, nil
		case 0x4:
			return AddReg{x, y}, nil
		case 0x5:
			return Sub{x, y}, nil
		case 0x6:
			return ShiftRight{x}, nil
		case 0x7:
			return SubReverse{x, y}, nil
		case 0xe:
			return ShiftLeft{x}, nil
		}
	case 0x9:
		if n == 0x0 {
			return SkipRegNeq{x, y}, nil
		}
	case 0xa:
		return LoadIndex{a}, nil
	case 0xb:
		return JumpIndexed{a}, nil
	case 0xc:
		return Random{x, b}, nil
	case 0xd:
		return Draw{x, y, byte(n)}, nil
	case 0xe:
		switch b {
		case 0x9e:
			return SkipKeyPressed{x}, nil
		case 0xa1:
			return SkipKeyNotPressed{x}, nil
		}
	case 0xf:
		switch b {
		case 0x07:
			return GetDelay{x}, nil
		case 0x0a:
			return WaitKey{x}, nil
		case 0x15:
			return SetDelay{x}, nil
		case 0x18:
			return SetSound{x}, nil
		case 0x1e:
			return AddToIndex{x}, nil
		case 0x29:
			return LoadDigitSprite{x}, nil
		case 0x33:
			return StoreBCD{x}, nil
		case 0x55:
			return StoreRegs{x}, nil
		case 0x65:
			return LoadRegs{x}, nil
		}
	}
	return nil, OpcodeError{Word: w}
}

func nibbles(w uint16) (hi byte, x, y Reg, n byte) {
	return byte(w >> 12), Reg(w >> 8 & 0xf), Reg(w >> 4 & 0xf), byte(w & 0xf)
}

// OpcodeError is returned by Decode for words that match no instruction.
type OpcodeError struct {
	Word uint16
}

func (e OpcodeError) Error() string {
	return fmt.Sprintf("%s %.4x", InvalidOpcode, e.Word)
}

func (e OpcodeError) Unwrap() error { return InvalidOpcode }

// Encode returns the instruction word for op. It is the inverse of Decode.
func Encode(op Op) uint16 {
	xy := func(hi uint16, x, y Reg, n uint16) uint16 {
		return hi<<12 | uint16(x&0xf)<<8 | uint16(y&0xf)<<4 | n&0xf
	}
	xb := func(hi uint16, x Reg, b byte) uint16 {
		return hi<<12 | uint16(x&0xf)<<8 | uint16(b)
	}
	switch op := op.(type) {
	case Clear:
		return 0x00e0
	case Return:
		return 0x00ee
	case Jump:
		return 0x1000 | op.Addr&0xfff
	case Call:
		return 0x2000 | op.Addr&0xfff
	case SkipEq:
		return xb(0x3, op.X, op.Byte)
	case SkipNeq:
		return xb(0x4, op.X, op.Byte)
	case SkipRegEq:
		return xy(0x5, op.X, op.Y, 0x0)
	case Load:
		return xb(0x6, op.X, op.Byte)
	case Add:
		return xb(0x7, op.X, op.Byte)
	case LoadReg:
		return xy(0x8, op.X, op.Y, 0x0)
	case Or:
		return xy(0x8, op.X, op.Y, 0x1)
	case And:
		return xy(0x8, op.X, op.Y, 0x2)
	case Xor:
		return xy(0x8, op.X, op.Y, 0x3)
	case AddReg:
		return xy(0x8, op.X, op.Y, 0x4)
	case Sub:
		return xy(0x8, op.X, op.Y, 0x5)
	case ShiftRight:
		return xy(0x8, op.X, 0, 0x6)
	case SubReverse:
		return xy(0x8, op.X, op.Y, 0x7)
	case ShiftLeft:
		return xy(0x8, op.X, 0, 0xe)
	case SkipRegNeq:
		return xy(0x9, op.X, op.Y, 0x0)
	case LoadIndex:
		return 0xa000 | op.Addr&0xfff
	case JumpIndexed:
		return 0xb000 | op.Addr&0xfff
	case Random:
		return xb(0xc, op.X, op.Byte)
	case Draw:
		return xy(0xd, op.X, op.Y, uint16(op.N))
	case SkipKeyPressed:
		return xb(0xe, op.X, 0x9e)
	case SkipKeyNotPressed:
		return xb(0xe, op.X, 0xa1)
	case GetDelay:
		return xb(0xf, op.X, 0x07)
	case WaitKey:
		return xb(0xf, op.X, 0x0a)
	case SetDelay:
		return xb(0xf, op.X, 0x15)
	case SetSound:
		return xb(0xf, op.X, 0x18)
	case AddToIndex:
		return xb(0xf, op.X, 0x1e)
	case LoadDigitSprite:
		return xb(0xf, op.X, 0x29)
	case StoreBCD:
		return xb(0xf, op.X, 0x33)
	case StoreRegs:
		return xb(0xf, op.X, 0x55)
	case LoadRegs:
		return xb(0xf, op.X, 0x65)
	}
	panic(fmt.Errorf("internal error: cannot encode %v", op))
}
