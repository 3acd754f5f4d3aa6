package protocol

// p2idScriptRoot is the well-known root of the standard P2ID (pay-to-id)
// note script. A note with this script root pays its assets to the account
// whose id is encoded in the note inputs.
var p2idScriptRoot = hashWord("miden.note.script.p2id", nil)

// P2IDScriptRoot returns the well-known P2ID script root.
func P2IDScriptRoot() Word {
	return p2idScriptRoot
}

// NewP2IDNote builds a P2ID output note transferring the asset from sender
// to target. The target account id is encoded in the note inputs as
// [suffix, prefix]; recovery therefore reads [inputs[1], inputs[0]]. The
// ordering is fixed by the note script and must not change.
func NewP2IDNote(sender, target AccountID, asset FungibleAsset, noteType NoteType, serialNum Word) (Note, error) {
	vault, err := NewAssetVault(asset)
	if err != nil {
		return Note{}, err
	}
	elements := target.Elements()
	return Note{
		Assets: vault,
		Recipient: NoteRecipient{
			ScriptRoot: p2idScriptRoot,
			Inputs:     []Felt{elements[1], elements[0]},
			SerialNum:  serialNum,
		},
		Metadata: NoteMetadata{
			Sender: sender,
			Type:   noteType,
		},
	}, nil
}

// P2IDTarget recovers the target account id from P2ID note inputs. Returns
// false when the inputs cannot encode an account id.
func P2IDTarget(inputs []Felt) (AccountID, bool) {
	if len(inputs) < 2 {
		return AccountID{}, false
	}
	id, err := AccountIDFromElements([2]Felt{inputs[1], inputs[0]})
	if err != nil {
		return AccountID{}, false
	}
	return id, true
}
