package fat32

import (
	"io"
	"testing"
)

// FuzzFS drives Mkdir/OpenFile/Read/Write/Close through a 64-bit bytecode
// stream, the same self-contained "virtual machine" shape as the teacher's
// fuzz_test.go FuzzFS, adapted onto this package's descriptor-table File
// API (the teacher fuzzes its single embedded File value; this fuzzes a
// pool of *File handles returned by OpenFile).
//
//   - OP (bits 0-3): operation to perform.
//   - WHO (bits 4-7): which pooled handle to target, taken modulo the
//     pool size, 0 meaning the oldest.
//   - PERM (bits 8-9): extra Mode bits requested on open/create.
//   - DATASIZE (bits 48-63): bytes to read/write, if applicable.
func FuzzFS(f *testing.F) {
	const (
		opMkdir uint64 = iota
		opCreateFile
		opOpenFile
		opWriteFile
		opReadFile
		opCloseFile

		datasizeOff = 48
		whoOff      = 4
		permOff     = 8
	)
	type handle struct {
		file   *File
		name   string
		closed bool
	}

	writeData := make([]byte, 1<<16)
	readData := make([]byte, 1<<16)
	for i := range writeData {
		writeData[i] = byte(i)
	}

	f.Add(opMkdir, opCreateFile, opWriteFile|(1000<<datasizeOff),
		opCloseFile, opOpenFile, opReadFile|(1000<<datasizeOff),
		opMkdir, opOpenFile|(1<<whoOff), opWriteFile|(1<<whoOff)|(1000<<datasizeOff),
		opCloseFile|(1<<whoOff), opOpenFile, opReadFile|(1<<whoOff)|(1001<<datasizeOff),
	)

	const totalFSSize = 2 * 32000
	f.Fuzz(func(t *testing.T, fsop0, fsop1, fsop2, fsop3, fsop4, fsop5, fsop6, fsop7, fsop8, fsop9, fsop10, fsop11 uint64) {
		dev := formatSmallImage(t, totalFSSize)
		fs, err := Mount(dev)
		if err != nil {
			t.Fatal(err)
		}

		fsops := [...]uint64{fsop0, fsop1, fsop2, fsop3, fsop4, fsop5, fsop6, fsop7, fsop8, fsop9, fsop10, fsop11}
		var handles []handle
		dir := "/"
		totalWritten := 0

		getWho := func(who uint8) *handle {
			if len(handles) == 0 {
				return nil
			}
			return &handles[who%uint8(len(handles))]
		}

		for i, fsop := range fsops {
			op := fsop & 0xf
			who := byte(fsop) >> whoOff
			perm := Mode(fsop>>permOff) & 3
			datasize := uint16(fsop >> datasizeOff)

			switch op {
			case opMkdir:
				if dir == "/" {
					dir = "/d"
					_ = fs.Mkdir(dir) // may already exist across fuzz runs; ignore
				} else {
					dir = "/"
				}

			case opCreateFile:
				name := dir + "/f" + string(rune('a'+i%16))
				file, err := fs.OpenFile(name, perm|ModeCreate|ModeWrite|ModeRead)
				if err != nil {
					break // directory may not exist yet, or descriptor table full
				}
				handles = append(handles, handle{file: file, name: name})

			case opOpenFile:
				h := getWho(who)
				if h == nil || !h.closed {
					break
				}
				file, err := fs.OpenFile(h.name, perm|ModeRead)
				if err == nil {
					h.file = file
					h.closed = false
				}

			case opCloseFile:
				h := getWho(who)
				if h == nil || h.closed {
					break
				}
				if err := h.file.Close(); err != nil {
					t.Fatalf("close: %v", err)
				}
				h.closed = true

			case opWriteFile:
				if totalWritten >= totalFSSize*4/5 {
					break
				}
				h := getWho(who)
				if h == nil || h.closed {
					break
				}
				n, err := h.file.Write(writeData[:datasize])
				if err != nil {
					break // out of space is an expected outcome under fuzzing
				}
				if n != int(datasize) {
					t.Fatalf("short write: %d != %d", n, datasize)
				}
				totalWritten += n

			case opReadFile:
				h := getWho(who)
				if h == nil || h.closed {
					break
				}
				_, err := h.file.Read(readData[:datasize])
				if err != nil && err != io.EOF {
					t.Fatalf("read: %v", err)
				}
			}
		}
	})
}
