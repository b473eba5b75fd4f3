// internal/browser/cdp/script.go
package cdp

// registryScript installs window.__brewer, the page side of the element
// handle registry and the value replicator. It is evaluated on every new
// document and is idempotent.
const registryScript = `(function () {
  if (window.__brewer) return;

  var nodes = new Map();
  var ids = new WeakMap();
  var nextId = 0;
  var textTypes = ['', 'text', 'password', 'email', 'number', 'search', 'tel', 'url'];

  function id(node) {
    if (!node) return 0;
    var i = ids.get(node);
    if (!i) {
      i = ++nextId;
      ids.set(node, i);
      nodes.set(i, node);
    }
    return i;
  }

  function node(i) {
    var n = nodes.get(i);
    if (!n) throw new Error('unknown element handle ' + i);
    return n;
  }

  function isTextField(n) {
    if (n.tagName === 'TEXTAREA') return true;
    if (n.tagName !== 'INPUT') return false;
    return textTypes.indexOf((n.getAttribute('type') || '').toLowerCase()) !== -1;
  }

  function valueOf(n) {
    return isTextField(n) ? n.value : n.textContent;
  }

  function inspect(i) {
    var n = node(i);
    var text = isTextField(n);
    return {
      editable: text || !!n.isContentEditable,
      textEditable: text && !n.disabled && !n.readOnly,
      contentEditable: !text && !!n.isContentEditable,
      numberInput: n.tagName === 'INPUT' && (n.getAttribute('type') || '').toLowerCase() === 'number',
      valueLength: (valueOf(n) || '').length
    };
  }

  function descendants(i) {
    return Array.prototype.map.call(node(i).querySelectorAll('*'), id);
  }

  function editingHost(i) {
    var n = node(i);
    if (!n.isContentEditable) return 0;
    while (n.parentElement && n.parentElement.isContentEditable) n = n.parentElement;
    return id(n);
  }

  function point(i, offsetX, offsetY, scroll) {
    var n = node(i);
    if (scroll) n.scrollIntoView({ block: 'center', inline: 'center' });
    var rect = n.getBoundingClientRect();
    return {
      x: rect.left + (offsetX === null ? Math.round(rect.width / 2) : offsetX),
      y: rect.top + (offsetY === null ? Math.round(rect.height / 2) : offsetY)
    };
  }

  function defaultOffsets(i) {
    var rect = node(i).getBoundingClientRect();
    return { x: Math.round(rect.width / 2), y: Math.round(rect.height / 2) };
  }

  function textRange(n, start, end) {
    var range = document.createRange();
    var walker = document.createTreeWalker(n, NodeFilter.SHOW_TEXT);
    var pos = 0, t, startSet = false;
    while ((t = walker.nextNode())) {
      var len = t.data.length;
      if (!startSet && start <= pos + len) { range.setStart(t, start - pos); startSet = true; }
      if (startSet && end <= pos + len) { range.setEnd(t, end - pos); return range; }
      pos += len;
    }
    range.selectNodeContents(n);
    range.collapse(false);
    return range;
  }

  function selectionStart(i) {
    var n = node(i);
    if (isTextField(n)) return n.selectionStart || 0;
    var sel = window.getSelection();
    if (!sel.rangeCount || !n.contains(sel.anchorNode)) return 0;
    var range = document.createRange();
    range.selectNodeContents(n);
    range.setEnd(sel.anchorNode, sel.anchorOffset);
    return range.toString().length;
  }

  function select(i, start, end) {
    var n = node(i);
    var length = (valueOf(n) || '').length;
    var lo = Math.max(0, Math.min(start, end, length));
    var hi = Math.min(Math.max(start, end), length);
    if (isTextField(n)) {
      n.setSelectionRange(lo, hi, start > end ? 'backward' : 'forward');
      return;
    }
    var sel = window.getSelection();
    sel.removeAllRanges();
    sel.addRange(textRange(n, lo, hi));
  }

  function selectAll(i) {
    var n = node(i);
    if (isTextField(n)) { n.select(); return; }
    var range = document.createRange();
    range.selectNodeContents(n);
    var sel = window.getSelection();
    sel.removeAllRanges();
    sel.addRange(range);
  }

  function deleteSelection(i) {
    var n = node(i);
    if (isTextField(n)) {
      n.setRangeText('', n.selectionStart, n.selectionEnd, 'start');
    } else {
      window.getSelection().deleteFromDocument();
    }
    n.dispatchEvent(new InputEvent('input', { bubbles: true, inputType: 'deleteContentBackward' }));
  }

  function watch(i, restart) {
    var n = node(i);
    n.__brewerWatched = valueOf(n);
    if (restart || n.__brewerWatching) return;
    n.__brewerWatching = true;
    n.addEventListener('blur', function onBlur() {
      n.removeEventListener('blur', onBlur);
      n.__brewerWatching = false;
      if (valueOf(n) !== n.__brewerWatched) n.dispatchEvent(new Event('change', { bubbles: true }));
    });
  }

  function dispatchKey(i, data) {
    var mods = data.modifiers || 0;
    var ev = new KeyboardEvent(data.type, {
      bubbles: true,
      cancelable: true,
      key: data.key || undefined,
      altKey: !!(mods & 1),
      ctrlKey: !!(mods & 2),
      metaKey: !!(mods & 4),
      shiftKey: !!(mods & 8)
    });
    var legacy = { keyCode: data.keyCode, which: data.keyCode, charCode: data.charCode || 0 };
    if (data.keyIdentifier) legacy.keyIdentifier = data.keyIdentifier;
    Object.keys(legacy).forEach(function (k) {
      Object.defineProperty(ev, k, { get: function () { return legacy[k]; } });
    });
    return node(i).dispatchEvent(ev);
  }

  function typeIntoField(i, text) {
    var n = node(i);
    if (!isTextField(n)) return false;
    if (n.tagName === 'INPUT') text = text.replace(/[\r\n]/g, '');
    if (!text) return true;
    n.setRangeText(text, n.selectionStart, n.selectionEnd, 'end');
    n.dispatchEvent(new InputEvent('input', { bubbles: true, inputType: 'insertText', data: text }));
    return true;
  }

  function visible(n) {
    if (!(n instanceof Element)) return false;
    var style = window.getComputedStyle(n);
    if (style.display === 'none' || style.visibility === 'hidden') return false;
    var rect = n.getBoundingClientRect();
    return rect.width > 0 || rect.height > 0;
  }

  function firstMatch(result, visibilityCheck) {
    var list = [];
    if (result instanceof Node) list = [result];
    else if (result && typeof result.length === 'number') list = Array.prototype.slice.call(result);
    for (var k = 0; k < list.length; k++) {
      var n = list[k];
      if (!(n instanceof Node)) continue;
      if (visibilityCheck && !visible(n)) continue;
      return id(n);
    }
    return 0;
  }

  function snapshot(n) {
    var attrs = {};
    if (n.attributes) {
      for (var k = 0; k < n.attributes.length; k++) attrs[n.attributes[k].name] = n.attributes[k].value;
    }
    return {
      ref: String(id(n)),
      nodeType: n.nodeType,
      tagName: n.tagName || '',
      attributes: attrs,
      textContent: n.textContent || '',
      value: typeof n.value === 'string' ? n.value : '',
      focused: document.activeElement === n
    };
  }

  function encode(val, callsite, depth) {
    depth = depth || 0;
    if (depth > 64) throw new Error('client function result is nested too deeply');
    if (val === undefined || val === null) return null;
    if (typeof val === 'function') return { '@t': 'Function', data: val.toString() };
    if (val instanceof Node) return { '@t': 'Node', data: { callsite: callsite, node: snapshot(val) } };
    if (Array.isArray(val)) return val.map(function (v) { return encode(v, callsite, depth + 1); });
    if (val instanceof Date) return val.toISOString();
    if (typeof val === 'object') {
      var out = {};
      Object.keys(val).forEach(function (k) { out[k] = encode(val[k], callsite, depth + 1); });
      return Object.prototype.hasOwnProperty.call(val, '@t') ? { '@t': 'Object', data: out } : out;
    }
    if (typeof val === 'number' && !isFinite(val)) return null;
    return val;
  }

  function decode(val) {
    if (Array.isArray(val)) return val.map(decode);
    if (val === null || typeof val !== 'object') return val;
    if (typeof val['@t'] === 'string') {
      switch (val['@t']) {
        case 'Function': return (0, eval)('(' + val.data + ')');
        case 'Object': return decodeObject(val.data);
        case 'Node': return nodes.get(Number(val.data.node.ref)) || val.data.node;
        default: throw new Error('no transform for type "' + val['@t'] + '"');
      }
    }
    return decodeObject(val);
  }

  function decodeObject(obj) {
    var out = {};
    Object.keys(obj).forEach(function (k) { out[k] = decode(obj[k]); });
    return out;
  }

  window.__brewer = {
    id: id,
    node: node,
    inspect: inspect,
    descendants: descendants,
    editingHost: editingHost,
    active: function () { return id(document.activeElement); },
    point: point,
    defaultOffsets: defaultOffsets,
    selectionStart: selectionStart,
    select: select,
    selectAll: selectAll,
    deleteSelection: deleteSelection,
    watch: watch,
    dispatchKey: dispatchKey,
    typeIntoField: typeIntoField,
    value: function (i) { return valueOf(node(i)) || ''; },
    isFileInput: function (i) { var n = node(i); return n.tagName === 'INPUT' && n.type === 'file'; },
    firstMatch: firstMatch,
    encode: encode,
    decode: decode
  };
})();`
