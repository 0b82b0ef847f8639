package bridge

/*Recover drains bus until a RecoverTimeoutMs quiet window is observed,
which is the only resynchronization signal two peers share after a
Corrupted frame - neither side can know where the next frame boundary is,
so both must wait for the line to fall silent.

Each probe is a single ReadByte(RecoverTimeoutMs):
  - ReadTimeout means the bus has been quiet for RecoverTimeoutMs: recovery
    succeeded.
  - A successfully read byte is discarded and counted against the overall
    budget timeoutMs.
  - IOError aborts recovery immediately.

If timeoutMs is smaller than RecoverTimeoutMs, the caller cannot afford even
one probe window, and Recover returns Timeout without touching the bus.*/
func Recover(bus ByteBus, timeoutMs uint32) error {
	if timeoutMs < RecoverTimeoutMs {
		return newProtocolError(ResultTimeout, nil)
	}

	var waited uint32
	for {
		_, res, err := bus.ReadByte(RecoverTimeoutMs)
		switch res {
		case CallbackReadTimeout:
			return nil
		case CallbackIOError:
			return newProtocolError(ResultIOError, err)
		default:
			waited += RecoverTimeoutMs
			if waited >= timeoutMs {
				return newProtocolError(ResultTimeout, nil)
			}
		}
	}
}
