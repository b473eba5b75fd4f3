package schemas

// CommandType is the discriminator of a command record on the wire.
type CommandType string

const (
	CommandClick                   CommandType = "click"
	CommandRightClick              CommandType = "right-click"
	CommandDoubleClick             CommandType = "double-click"
	CommandHover                   CommandType = "hover"
	CommandDrag                    CommandType = "drag"
	CommandDragToElement           CommandType = "drag-to-element"
	CommandTypeText                CommandType = "type-text"
	CommandSelectText              CommandType = "select-text"
	CommandSelectTextAreaContent   CommandType = "select-text-area-content"
	CommandSelectEditableContent   CommandType = "select-editable-content"
	CommandPressKey                CommandType = "press-key"
	CommandWait                    CommandType = "wait"
	CommandNavigateTo              CommandType = "navigate-to"
	CommandSetFilesToUpload        CommandType = "set-files-to-upload"
	CommandClearUpload             CommandType = "clear-upload"
	CommandTakeScreenshot          CommandType = "take-screenshot"
	CommandResizeWindow            CommandType = "resize-window"
	CommandResizeWindowToFitDevice CommandType = "resize-window-to-fit-device"
	CommandSwitchToIframe          CommandType = "switch-to-iframe"
	CommandSwitchToMainWindow      CommandType = "switch-to-main-window"
	CommandExecuteClientFunction   CommandType = "execute-client-function"
	CommandExecuteSelector         CommandType = "execute-selector"
)
