package chip8

import "fmt"

// Opcode is a decoded 16-bit CHIP-8 instruction word.
type Opcode struct {
	Code uint16
	N    byte   // low nibble
	NN   byte   // low byte
	NNN  uint16 // low 12 bits
	X    byte   // bits 8-11
	Y    byte   // bits 4-7
}

// Decode splits an instruction word into its fixed sub-fields.
func Decode(code uint16) Opcode {
	return Opcode{
		Code: code,
		N:    byte(code & 0xf),
		NN:   byte(code & 0xff),
		NNN:  code & 0xfff,
		X:    byte(code >> 8 & 0xf),
		Y:    byte(code >> 4 & 0xf),
	}
}

// String renders the instruction with its operand values filled in,
// for example "JP 0x224" or "DRW V1, V2, 5".
func (op Opcode) String() string {
	switch op.Code & 0xf000 {
	case 0x0000:
		switch op.Code {
		case 0x00e0:
			return "CLS"
		case 0x00ee:
			return "RET"
		}
	case 0x1000:
		return fmt.Sprintf("JP 0x%.3x", op.NNN)
	case 0x2000:
		return fmt.Sprintf("CALL 0x%.3x", op.NNN)
	case 0x3000:
		return fmt.Sprintf("SE V%X, 0x%.2x", op.X, op.NN)
	case 0x4000:
		return fmt.Sprintf("SNE V%X, 0x%.2x", op.X, op.NN)
	case 0x5000:
		if op.N == 0 {
			return fmt.Sprintf("SE V%X, V%X", op.X, op.Y)
		}
	case 0x6000:
		return fmt.Sprintf("LD V%X, 0x%.2x", op.X, op.NN)
	case 0x7000:
		return fmt.Sprintf("ADD V%X, 0x%.2x", op.X, op.NN)
	case 0x8000:
		switch op.N {
		case 0x0:
			return fmt.Sprintf("LD V%X, V%X", op.X, op.Y)
		case 0x1:
			return fmt.Sprintf("OR V%X, V%X", op.X, op.Y)
		case 0x2:
			return fmt.Sprintf("AND V%X, V%X", op.X, op.Y)
		case 0x3:
			return fmt.Sprintf("XOR V%X, V%X", op.X, op.Y)
		case 0x4:
			return fmt.Sprintf("ADD V%X, V%X", op.X, op.Y)
		case 0x5:
			return fmt.Sprintf("SUB V%X, V%X", op.X, op.Y)
		case 0x6:
			return fmt.Sprintf("SHR V%X, V%X", op.X, op.Y)
		case 0x7:
			return fmt.Sprintf("SUBN V%X, V%X", op.X, op.Y)
		case 0xe:
			return fmt.Sprintf("SHL V%X, V%X", op.X, op.Y)
		}
	case 0x9000:
		if op.N == 0 {
			return fmt.Sprintf("SNE V%X, V%X", op.X, op.Y)
		}
	case 0xa000:
		return fmt.Sprintf("LD I, 0x%.3x", op.NNN)
	case 0xb000:
		return fmt.Sprintf("JP V0, 0x%.3x", op.NNN)
	case 0xc000:
		return fmt.Sprintf("RND V%X, 0x%.2x", op.X, op.NN)
	case 0xd000:
		return fmt.Sprintf("DRW V%X, V%X, %d", op.X, op.Y, op.N)
	case 0xe000:
		switch op.NN {
		case 0x9e:
			return fmt.Sprintf("SKP V%X", op.X)
		case 0xa1:
			return fmt.Sprintf("SKNP V%X", op.X)
		}
	case 0xf000:
		switch op.NN {
		case 0x07:
			return fmt.Sprintf("LD V%X, DT", op.X)
		case 0x0a:
			return fmt.Sprintf("LD V%X, K", op.X)
		case 0x15:
			return fmt.Sprintf("LD DT, V%X", op.X)
		case 0x18:
			return fmt.Sprintf("LD ST, V%X", op.X)
		case 0x1e:
			return fmt.Sprintf("ADD I, V%X", op.X)
		case 0x29:
			return fmt.Sprintf("LD F, V%X", op.X)
		case 0x33:
			return fmt.Sprintf("LD B, V%X", op.X)
		case 0x55:
			return fmt.Sprintf("LD [I], V%X", op.X)
		case 0x65:
			return fmt.Sprintf("LD V%X, [I]", op.X)
		}
	}
	return fmt.Sprintf(".word 0x%.4x", op.Code)
}

// instruction pairs a handler with the mnemonic reported by MnemonicAt.
// A nil fn marks an unassigned bit pattern; Clock treats it as a no-op
// (or a fault in strict mode) so that data embedded in a ROM's
// instruction stream cannot crash execution.
type instruction struct {
	name string
	fn   func(*Machine, Opcode)
}

var unknown = instruction{name: "???"}

// inst selects exactly one handler and mnemonic for op. Dispatch keys on
// the top nibble, refined by the trailing nibble or byte for the 0, 5, 8,
// 9, E and F groups. The 8xy6/8xyE pair is resolved by the LegacyShift
// quirk flag rather than by bit pattern.
func (m *Machine) inst(op Opcode) instruction {
	switch op.Code {
	case 0x00e0:
		return instruction{"CLS", (*Machine).cls}
	case 0x00ee:
		return instruction{"RET", (*Machine).ret}
	}
	switch op.Code >> 12 {
	case 0x1:
		return instruction{"JP addr", (*Machine).jp}
	case 0x2:
		return instruction{"CALL addr", (*Machine).call}
	case 0x3:
		return instruction{"SE Vx, byte", (*Machine).seImm}
	case 0x4:
		return instruction{"SNE Vx, byte", (*Machine).sneImm}
	case 0x5:
		if op.N == 0 {
			return instruction{"SE Vx, Vy", (*Machine).seReg}
		}
	case 0x6:
		return instruction{"LD Vx, byte", (*Machine).ldImm}
	case 0x7:
		return instruction{"ADD Vx, byte", (*Machine).addImm}
	case 0x8:
		switch op.N {
		case 0x0:
			return instruction{"LD Vx, Vy", (*Machine).ldReg}
		case 0x1:
			return instruction{"OR Vx, Vy", (*Machine).or}
		case 0x2:
			return instruction{"AND Vx, Vy", (*Machine).and}
		case 0x3:
			return instruction{"XOR Vx, Vy", (*Machine).xor}
		case 0x4:
			return instruction{"ADD Vx, Vy", (*Machine).addCarry}
		case 0x5:
			return instruction{"SUB Vx, Vy", (*Machine).sub}
		case 0x6:
			if m.LegacyShift {
				return instruction{"SHR Vx, Vy", (*Machine).shrY}
			}
			return instruction{"SHR Vx", (*Machine).shr}
		case 0x7:
			return instruction{"SUBN Vx, Vy", (*Machine).subn}
		case 0xe:
			if m.LegacyShift {
				return instruction{"SHL Vx, Vy", (*Machine).shlY}
			}
			return instruction{"SHL Vx", (*Machine).shl}
		}
	case 0x9:
		if op.N == 0 {
			return instruction{"SNE Vx, Vy", (*Machine).sneReg}
		}
	case 0xa:
		return instruction{"LD I, addr", (*Machine).ldI}
	case 0xb:
		return instruction{"JP V0, addr", (*Machine).jpV0}
	case 0xc:
		return instruction{"RND Vx, byte", (*Machine).rnd}
	case 0xd:
		return instruction{"DRW Vx, Vy, n", (*Machine).drw}
	case 0xe:
		switch op.NN {
		case 0x9e:
			return instruction{"SKP Vx", (*Machine).skp}
		case 0xa1:
			return instruction{"SKNP Vx", (*Machine).sknp}
		}
	case 0xf:
		switch op.NN {
		case 0x07:
			return instruction{"LD Vx, DT", (*Machine).ldFromDelay}
		case 0x0a:
			return instruction{"LD Vx, K", (*Machine).waitKey}
		case 0x15:
			return instruction{"LD DT, Vx", (*Machine).setDelay}
		case 0x18:
			return instruction{"LD ST, Vx", (*Machine).setSound}
		case 0x1e:
			return instruction{"ADD I, Vx", (*Machine).addI}
		case 0x29:
			return instruction{"LD F, Vx", (*Machine).ldFont}
		case 0x33:
			return instruction{"LD B, Vx", (*Machine).bcd}
		case 0x55:
			return instruction{"LD [I], Vx", (*Machine).saveRegs}
		case 0x65:
			return instruction{"LD Vx, [I]", (*Machine).loadRegs}
		}
	}
	return unknown
}
